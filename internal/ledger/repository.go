package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/platform/db"
)

// Repository is the ledger persistence surface.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListMovements(ctx context.Context, productID string, limit int) ([]Movement, error)
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID string) (ProductState, error)
	UpdateProductState(ctx context.Context, st ProductState) error
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction. Together with the
// row lock taken by GetProductForUpdate this serialises concurrent postings
// against the same product.
func (r *pgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *pgRepository) ListMovements(ctx context.Context, productID string, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, movement_type, quantity, unit_cost,
		       balance_qty, balance_value, posted_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY posted_at DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var items []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost,
			&m.BalanceQty, &m.BalanceValue, &m.PostedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, productID string) (ProductState, error) {
	var st ProductState
	err := r.tx.QueryRow(ctx, `
		SELECT id, total_in_stock, total_sold, average_import_price,
		       highest_import_price, profit_percent, selling_price
		FROM products
		WHERE id = $1 AND is_deleted = FALSE
		FOR UPDATE`, productID).Scan(
		&st.ID, &st.TotalInStock, &st.TotalSold, &st.AverageImportPrice,
		&st.HighestImportPrice, &st.ProfitPercent, &st.SellingPrice,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, ErrNotFound
	}
	if err != nil {
		return ProductState{}, fmt.Errorf("lock product: %w", err)
	}
	return st, nil
}

func (r *txRepository) UpdateProductState(ctx context.Context, st ProductState) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE products SET
			total_in_stock = $2,
			total_sold = $3,
			average_import_price = $4,
			highest_import_price = $5,
			profit_percent = $6,
			selling_price = $7,
			updated_at = NOW()
		WHERE id = $1`,
		st.ID, st.TotalInStock, st.TotalSold, st.AverageImportPrice,
		st.HighestImportPrice, st.ProfitPercent, st.SellingPrice)
	if err != nil {
		return fmt.Errorf("update product state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (
			id, product_id, movement_type, quantity, unit_cost,
			balance_qty, balance_value
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING posted_at`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.UnitCost,
		m.BalanceQty, m.BalanceValue).Scan(&m.PostedAt)
	if err != nil {
		return Movement{}, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}
