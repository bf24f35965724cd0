package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// LedgerPort adjusts stock counters for sold and restored quantities.
type LedgerPort interface {
	DeductSale(ctx context.Context, productID string, quantity int) (ledger.Entry, error)
	RestoreSale(ctx context.Context, productID string, quantity int) (ledger.Entry, error)
}

// AuditPort records invoice mutations; a nil port disables auditing.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the sale use cases.
type Service struct {
	repo   RepositoryPort
	ledger LedgerPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the sales service. audit may be nil.
func NewService(repo RepositoryPort, led LedgerPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: led, audit: audit, logger: logger, now: time.Now}
}

// Create records a sale. The invoice document is persisted first, then each
// line deducts stock. A line whose deduction fails, or that carries no
// resolvable product, is logged and skipped; the invoice still stands, so
// the books prefer a recorded sale with a stock discrepancy over a lost
// sale.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if len(in.Items) == 0 {
		return Invoice{}, fmt.Errorf("%w: invoice has no items", ErrValidation)
	}
	var total float64
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return Invoice{}, fmt.Errorf("%w: line %d quantity must be positive", ErrValidation, i)
		}
		if item.UnitPrice < 0 {
			return Invoice{}, fmt.Errorf("%w: line %d price must not be negative", ErrValidation, i)
		}
		total += item.UnitPrice * float64(item.Quantity)
	}

	number := in.Number
	if number == "" {
		number = GenerateInvoiceNumber(s.now())
	}

	inv, err := s.repo.CreateInvoice(ctx, Invoice{
		Number:       number,
		CustomerName: in.CustomerName,
		Items:        in.Items,
		TotalAmount:  total,
		Note:         in.Note,
	})
	if err != nil {
		return Invoice{}, err
	}

	for _, item := range inv.Items {
		if item.ProductID == "" {
			s.logger.WarnContext(ctx, "line has no product, stock untouched",
				slog.String("invoice", inv.Number),
				slog.String("product_name", item.ProductName))
			continue
		}
		if _, err := s.ledger.DeductSale(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.WarnContext(ctx, "stock deduction failed, invoice kept",
				slog.String("invoice", inv.Number),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))
		}
	}

	s.recordAudit(ctx, "sale.recorded", inv.ID, map[string]any{
		"number": inv.Number, "total_amount": inv.TotalAmount, "lines": len(inv.Items),
	})
	return inv, nil
}

// Get returns an invoice with its line items.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListByMonth returns the invoices created in the given calendar month.
func (s *Service) ListByMonth(ctx context.Context, year int, month time.Month) ([]Invoice, error) {
	if year < 2000 || year > 2200 {
		return nil, fmt.Errorf("%w: year out of range", ErrValidation)
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: invalid month", ErrValidation)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.repo.ListInvoices(ctx, from, from.AddDate(0, 1, 0))
}

// Delete voids an invoice: every sold quantity is returned to stock, then
// the document is removed. A restore failure for one line is logged and the
// deletion continues, mirroring how Create treats stock as best effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return err
	}

	for _, item := range inv.Items {
		if item.ProductID == "" {
			continue
		}
		if _, err := s.ledger.RestoreSale(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.WarnContext(ctx, "stock restore failed, deletion continues",
				slog.String("invoice", inv.Number),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))
		}
	}
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, "sale.deleted", id, map[string]any{"number": inv.Number})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, invoiceID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "sale_invoice",
		EntityID: invoiceID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record failed",
			slog.String("action", action), slog.String("error", err.Error()))
	}
}
