package ledger

import (
	"context"
	"log/slog"
	"math"

	"github.com/stockpilot/stockpilot/internal/pricing"
)

// Config carries the deployment-wide posting parameters: the tax rate used
// when prices are re-derived after a purchase, and whether sales may drive
// stock below zero.
type Config struct {
	TaxRate            float64
	AllowNegativeStock bool
}

// Service posts stock movements.
type Service struct {
	repo   Repository
	logger *slog.Logger
	cfg    Config
}

// NewService wires a ledger service.
func NewService(repo Repository, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, cfg: cfg}
}

// ApplyPurchase books a purchase line against a product: stock increases,
// the average cost is re-weighted, the highest cost ratchets up and the
// selling price is re-derived from it. The read, compute and write happen
// under a row lock so concurrent purchases never lose updates.
func (s *Service) ApplyPurchase(ctx context.Context, in PurchaseInput) (Entry, error) {
	if in.Quantity <= 0 {
		return Entry{}, ErrInvalidQuantity
	}
	if in.UnitCost < 0 {
		return Entry{}, ErrInvalidUnitCost
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		st, err := tx.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		oldStock := st.TotalInStock
		newStock := oldStock + in.Quantity
		if oldStock <= 0 {
			st.AverageImportPrice = in.UnitCost
		} else {
			st.AverageImportPrice = (st.AverageImportPrice*float64(oldStock) +
				in.UnitCost*float64(in.Quantity)) / float64(newStock)
		}
		st.TotalInStock = newStock
		st.HighestImportPrice = math.Max(st.HighestImportPrice, in.UnitCost)
		if in.ProfitPercent != nil {
			st.ProfitPercent = *in.ProfitPercent
		}
		st.SellingPrice = pricing.SellingPrice(st.HighestImportPrice, st.ProfitPercent, s.cfg.TaxRate)

		if err := tx.UpdateProductState(ctx, st); err != nil {
			return err
		}
		m, err := tx.InsertMovement(ctx, Movement{
			ProductID:    st.ID,
			Type:         MovementPurchase,
			Quantity:     in.Quantity,
			UnitCost:     in.UnitCost,
			BalanceQty:   newStock,
			BalanceValue: st.AverageImportPrice * float64(newStock),
		})
		if err != nil {
			return err
		}
		entry = Entry{Movement: m, Product: st}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	s.logger.InfoContext(ctx, "purchase posted",
		slog.String("product_id", in.ProductID),
		slog.Int("quantity", in.Quantity),
		slog.Float64("unit_cost", in.UnitCost))
	return entry, nil
}

// DeductSale reduces stock for a sold quantity. Stock never goes below zero;
// an oversell clamps at zero while the sold counter still records the full
// quantity.
func (s *Service) DeductSale(ctx context.Context, productID string, quantity int) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, ErrInvalidQuantity
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		st, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		newStock := st.TotalInStock - quantity
		if newStock < 0 && !s.cfg.AllowNegativeStock {
			s.logger.WarnContext(ctx, "sale exceeds stock, clamping to zero",
				slog.String("product_id", productID),
				slog.Int("stock", st.TotalInStock),
				slog.Int("quantity", quantity))
			newStock = 0
		}
		st.TotalInStock = newStock
		st.TotalSold += quantity

		if err := tx.UpdateProductState(ctx, st); err != nil {
			return err
		}
		m, err := tx.InsertMovement(ctx, Movement{
			ProductID:    st.ID,
			Type:         MovementSale,
			Quantity:     quantity,
			UnitCost:     st.AverageImportPrice,
			BalanceQty:   newStock,
			BalanceValue: st.AverageImportPrice * float64(newStock),
		})
		if err != nil {
			return err
		}
		entry = Entry{Movement: m, Product: st}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// RestoreSale returns a previously sold quantity to stock, used when an
// invoice is voided. Valuation fields stay untouched; only the counters move.
func (s *Service) RestoreSale(ctx context.Context, productID string, quantity int) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, ErrInvalidQuantity
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		st, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		st.TotalInStock += quantity
		st.TotalSold -= quantity
		if st.TotalSold < 0 {
			st.TotalSold = 0
		}

		if err := tx.UpdateProductState(ctx, st); err != nil {
			return err
		}
		m, err := tx.InsertMovement(ctx, Movement{
			ProductID:    st.ID,
			Type:         MovementSaleReversal,
			Quantity:     quantity,
			UnitCost:     st.AverageImportPrice,
			BalanceQty:   st.TotalInStock,
			BalanceValue: st.AverageImportPrice * float64(st.TotalInStock),
		})
		if err != nil {
			return err
		}
		entry = Entry{Movement: m, Product: st}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Movements returns the recent movement journal for a product.
func (s *Service) Movements(ctx context.Context, productID string, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, productID, limit)
}
