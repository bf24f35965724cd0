package imports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// CatalogPort is the slice of the catalog the orchestrator needs.
type CatalogPort interface {
	ResolveSupplier(ctx context.Context, id, name string) (catalog.Supplier, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.CreateProductInput) (catalog.Product, error)
}

// LedgerPort posts purchase lines to the stock ledger.
type LedgerPort interface {
	ApplyPurchase(ctx context.Context, in ledger.PurchaseInput) (ledger.Entry, error)
}

// AuditPort records receipt mutations; a nil port disables auditing.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates goods receipts.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	ledger  LedgerPort
	audit   AuditPort
	logger  *slog.Logger
}

// NewService wires the import orchestrator. audit may be nil.
func NewService(repo RepositoryPort, cat CatalogPort, led LedgerPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: cat, ledger: led, audit: audit, logger: logger}
}

// Record applies a goods receipt line by line, then persists the receipt
// document. Lines resolve to an existing product by id or best name match,
// or create a new product on the fly. A failing line aborts the batch; lines
// already applied are not rolled back, and the error names the failed line
// so the caller can resubmit the remainder.
func (s *Service) Record(ctx context.Context, in RecordInput) (ImportReceipt, error) {
	if len(in.Items) == 0 {
		return ImportReceipt{}, fmt.Errorf("%w: receipt has no items", ErrValidation)
	}

	supplier, err := s.catalog.ResolveSupplier(ctx, in.SupplierID, in.SupplierName)
	if err != nil {
		return ImportReceipt{}, fmt.Errorf("resolve supplier: %w", err)
	}

	var total float64
	for i, item := range in.Items {
		if err := s.applyLine(ctx, supplier.Name, item); err != nil {
			s.logger.ErrorContext(ctx, "import aborted",
				slog.Int("line", i),
				slog.Int("applied_lines", i),
				slog.String("error", err.Error()))
			return ImportReceipt{}, &LineError{Line: i, Err: err}
		}
		total += item.UnitCost * float64(item.Quantity)
	}

	receipt, err := s.repo.CreateReceipt(ctx, ImportReceipt{
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Items:        in.Items,
		TotalAmount:  total,
		Note:         in.Note,
	})
	if err != nil {
		return ImportReceipt{}, fmt.Errorf("persist receipt: %w", err)
	}

	s.recordAudit(ctx, "import.recorded", receipt.ID, map[string]any{
		"supplier":     supplier.Name,
		"lines":        len(in.Items),
		"total_amount": total,
	})
	return receipt, nil
}

func (s *Service) applyLine(ctx context.Context, supplierName string, item ImportItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if item.UnitCost < 0 {
		return fmt.Errorf("%w: unit cost must not be negative", ErrValidation)
	}

	product, found, err := s.resolveProduct(ctx, item)
	if err != nil {
		return err
	}
	if !found {
		profit := 0.0
		if item.ProfitPercent != nil {
			profit = *item.ProfitPercent
		}
		created, err := s.catalog.CreateProduct(ctx, catalog.CreateProductInput{
			Name:          item.ProductName,
			Unit:          item.Unit,
			Category:      item.Category,
			Supplier:      supplierName,
			ProfitPercent: profit,
		})
		if err != nil {
			return err
		}
		product = created
	}

	_, err = s.ledger.ApplyPurchase(ctx, ledger.PurchaseInput{
		ProductID:     product.ID,
		Quantity:      item.Quantity,
		UnitCost:      item.UnitCost,
		ProfitPercent: item.ProfitPercent,
	})
	return err
}

func (s *Service) resolveProduct(ctx context.Context, item ImportItem) (catalog.Product, bool, error) {
	if item.ProductID != "" {
		p, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return catalog.Product{}, false, err
		}
		return p, true, nil
	}

	name := strings.TrimSpace(item.ProductName)
	if name == "" {
		return catalog.Product{}, false, fmt.Errorf("%w: product id or name is required", ErrValidation)
	}
	// The search ranks exact before prefix before substring matches, so the
	// first hit is the best candidate. Only a miss creates a new product.
	hits, err := s.catalog.SearchProducts(ctx, name, 5)
	if err != nil {
		return catalog.Product{}, false, err
	}
	if len(hits) > 0 {
		return hits[0], true, nil
	}
	return catalog.Product{}, false, nil
}

// Get returns a receipt with its line items.
func (s *Service) Get(ctx context.Context, id string) (ImportReceipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

// List returns a page of receipts, newest first, without line items.
func (s *Service) List(ctx context.Context, page, perPage int) ([]ImportReceipt, shared.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	items, total, err := s.repo.ListReceipts(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Delete removes a receipt document. Stock and valuation already applied by
// the receipt stay as posted; deleting the paper trail does not rewind the
// ledger.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteReceipt(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "import.deleted", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, receiptID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "import_receipt",
		EntityID: receiptID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record failed",
			slog.String("action", action), slog.String("error", err.Error()))
	}
}
