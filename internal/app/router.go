package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/imports"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/platform/httpx"
	"github.com/stockpilot/stockpilot/internal/sales"
)

// Handlers aggregates the module handlers mounted by the router.
type Handlers struct {
	Catalog *catalog.Handler
	Ledger  *ledger.Handler
	Imports *imports.Handler
	Sales   *sales.Handler
}

// NewRouter builds the HTTP routing tree.
func NewRouter(mw MiddlewareConfig, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(MiddlewareStack(mw)...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", h.Catalog.Routes())
		r.Mount("/stock-movements", h.Ledger.Routes())
		r.Mount("/imports", h.Imports.Routes())
		r.Mount("/invoices", h.Sales.Routes())
	})

	return r
}
