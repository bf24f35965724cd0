package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort persists sale invoices.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	ListInvoices(ctx context.Context, from, to time.Time) ([]Invoice, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed invoice repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO sale_invoices (id, number, customer_name, total_amount, note)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at`,
			inv.ID, inv.Number, inv.CustomerName, inv.TotalAmount, inv.Note,
		).Scan(&inv.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: %s", ErrDuplicate, inv.Number)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		for i, item := range inv.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO sale_invoice_items (
					invoice_id, line_no, product_id, product_name, quantity, unit_price
				) VALUES ($1,$2,$3,$4,$5,$6)`,
				inv.ID, i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert invoice item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *pgRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, COALESCE(customer_name, ''), total_amount, COALESCE(note, ''), created_at
		FROM sale_invoices WHERE id = $1`, id).Scan(
		&inv.ID, &inv.Number, &inv.CustomerName, &inv.TotalAmount, &inv.Note, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price
		FROM sale_invoice_items
		WHERE invoice_id = $1
		ORDER BY line_no`, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return Invoice{}, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, rows.Err()
}

func (r *pgRepository) DeleteInvoice(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sale_invoice_items WHERE invoice_id = $1`, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM sale_invoices WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListInvoices returns invoices created within [from, to), newest first,
// without line items.
func (r *pgRepository) ListInvoices(ctx context.Context, from, to time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, COALESCE(customer_name, ''), total_amount, COALESCE(note, ''), created_at
		FROM sale_invoices
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var items []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CustomerName,
			&inv.TotalAmount, &inv.Note, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}
