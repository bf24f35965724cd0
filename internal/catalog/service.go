package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/stockpilot/stockpilot/internal/pricing"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// AuditPort records catalog mutations; a nil port disables auditing.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Config carries the pricing parameters of the deployment.
type Config struct {
	TaxRate              float64
	DefaultProfitPercent float64
}

// Service implements the catalog use cases.
type Service struct {
	repo   RepositoryPort
	cache  *SearchCache
	audit  AuditPort
	logger *slog.Logger
	cfg    Config

	searchGroup singleflight.Group
}

// NewService wires a catalog service. cache and audit may be nil.
func NewService(repo RepositoryPort, cache *SearchCache, audit AuditPort, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultProfitPercent <= 0 {
		cfg.DefaultProfitPercent = pricing.DefaultProfitPercent
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, cfg: cfg}
}

// CreateProduct registers a product. When no SKU is supplied one is generated
// from the category (or name) initials; the selling price is derived from the
// import price via the pricing rules.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.InitialStock < 0 {
		return Product{}, fmt.Errorf("%w: initial stock must not be negative", ErrValidation)
	}
	if in.ImportPrice < 0 {
		return Product{}, fmt.Errorf("%w: import price must not be negative", ErrValidation)
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "piece"
	}
	profit := in.ProfitPercent
	if profit <= 0 {
		profit = s.cfg.DefaultProfitPercent
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		hint := in.Category
		if strings.TrimSpace(hint) == "" {
			hint = name
		}
		sku = GenerateSKU(hint)
	}

	p := Product{
		SKU:                sku,
		Name:               name,
		Unit:               unit,
		Category:           strings.TrimSpace(in.Category),
		Supplier:           strings.TrimSpace(in.Supplier),
		TotalInStock:       in.InitialStock,
		AverageImportPrice: in.ImportPrice,
		HighestImportPrice: in.ImportPrice,
		ProfitPercent:      profit,
		SellingPrice:       pricing.SellingPrice(in.ImportPrice, profit, s.cfg.TaxRate),
	}
	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}

	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, "product.created", "product", created.ID, map[string]any{
		"sku": created.SKU, "name": created.Name,
	})
	return created, nil
}

// GetProduct fetches a product by id, deleted rows included.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct applies a partial update. Changing the margin re-derives the
// selling price from the highest import cost on record.
func (s *Service) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}

	patch := ProductPatch{
		Name:     in.Name,
		Unit:     in.Unit,
		Category: in.Category,
		Supplier: in.Supplier,
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Product{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if in.ProfitPercent != nil {
		patch.ProfitPercent = in.ProfitPercent
		selling := pricing.SellingPrice(existing.HighestImportPrice, *in.ProfitPercent, s.cfg.TaxRate)
		patch.SellingPrice = &selling
	}

	updated, err := s.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		return Product{}, err
	}

	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, "product.updated", "product", id, nil)
	return updated, nil
}

// DeleteProduct soft-deletes a product; its history stays referencable.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	deleted := true
	if _, err := s.repo.UpdateProduct(ctx, id, ProductPatch{IsDeleted: &deleted}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, "product.deleted", "product", id, nil)
	return nil
}

// ListProducts returns a page of non-deleted products, newest first.
func (s *Service) ListProducts(ctx context.Context, page, perPage int) ([]Product, shared.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	items, total, err := s.repo.ListProducts(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// SearchProducts looks up products by name with exact-prefix-substring
// ranking. Results are cached and concurrent identical lookups are collapsed
// into a single repository query.
func (s *Service) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Product{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if items, ok := s.cache.Get(ctx, query, limit); ok {
		return items, nil
	}

	key := searchKey(query, limit)
	v, err, _ := s.searchGroup.Do(key, func() (any, error) {
		items, err := s.repo.FindProductsByName(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, query, limit, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// CreateSupplier registers a supplier record.
func (s *Service) CreateSupplier(ctx context.Context, in Supplier) (Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Supplier{}, fmt.Errorf("%w: supplier name is required", ErrValidation)
	}
	created, err := s.repo.CreateSupplier(ctx, in)
	if err != nil {
		return Supplier{}, err
	}
	s.recordAudit(ctx, "supplier.created", "supplier", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// GetSupplier fetches a supplier by id.
func (s *Service) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListSuppliers returns all suppliers ordered by name.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// ResolveSupplier returns the supplier identified by id when given, otherwise
// looks one up by name and creates it on the fly when absent.
func (s *Service) ResolveSupplier(ctx context.Context, id, name string) (Supplier, error) {
	if id != "" {
		return s.repo.GetSupplier(ctx, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Supplier{}, fmt.Errorf("%w: supplier id or name is required", ErrValidation)
	}
	found, err := s.repo.GetSupplierByName(ctx, name)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Supplier{}, err
	}
	return s.CreateSupplier(ctx, Supplier{Name: name})
}

func (s *Service) recordAudit(ctx context.Context, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record failed",
			slog.String("action", action), slog.String("error", err.Error()))
	}
}
