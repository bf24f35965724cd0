package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockpilot/stockpilot/internal/app"
	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/imports"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/platform/cache"
	"github.com/stockpilot/stockpilot/internal/platform/db"
	"github.com/stockpilot/stockpilot/internal/sales"
	"github.com/stockpilot/stockpilot/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The search cache is optional; the service degrades to direct queries
	// when Redis is unreachable at boot.
	var searchCache *catalog.SearchCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, search cache disabled", slog.Any("error", err))
	} else {
		searchCache = catalog.NewSearchCache(redisClient, cfg.SearchCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, searchCache, auditLogger, logger, catalog.Config{
		TaxRate:              cfg.TaxRate,
		DefaultProfitPercent: cfg.DefaultProfitPercent,
	})

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, logger, ledger.Config{
		TaxRate:            cfg.TaxRate,
		AllowNegativeStock: cfg.AllowNegativeStock,
	})

	importsRepo := imports.NewRepository(dbpool)
	importsService := imports.NewService(importsRepo, catalogService, ledgerService, auditLogger, logger)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, ledgerService, auditLogger, logger)

	router := app.NewRouter(
		app.MiddlewareConfig{Logger: logger, Config: cfg},
		app.Handlers{
			Catalog: catalog.NewHandler(catalogService),
			Ledger:  ledger.NewHandler(ledgerService),
			Imports: imports.NewHandler(importsService),
			Sales:   sales.NewHandler(salesService),
		},
	)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
