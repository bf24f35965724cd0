package imports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort persists import receipts.
type RepositoryPort interface {
	CreateReceipt(ctx context.Context, r ImportReceipt) (ImportReceipt, error)
	GetReceipt(ctx context.Context, id string) (ImportReceipt, error)
	ListReceipts(ctx context.Context, limit, offset int) ([]ImportReceipt, int, error)
	DeleteReceipt(ctx context.Context, id string) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed receipt repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) CreateReceipt(ctx context.Context, rc ImportReceipt) (ImportReceipt, error) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO import_receipts (id, supplier_id, supplier_name, total_amount, note)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at`,
			rc.ID, rc.SupplierID, rc.SupplierName, rc.TotalAmount, rc.Note,
		).Scan(&rc.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		for i, item := range rc.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO import_receipt_items (
					receipt_id, line_no, product_id, product_name, unit,
					category, quantity, unit_cost, profit_percent
				) VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9)`,
				rc.ID, i, item.ProductID, item.ProductName, item.Unit,
				item.Category, item.Quantity, item.UnitCost, item.ProfitPercent)
			if err != nil {
				return fmt.Errorf("insert receipt item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportReceipt{}, err
	}
	return rc, nil
}

func (r *pgRepository) GetReceipt(ctx context.Context, id string) (ImportReceipt, error) {
	var rc ImportReceipt
	err := r.pool.QueryRow(ctx, `
		SELECT id, supplier_id, supplier_name, total_amount, COALESCE(note, ''), created_at
		FROM import_receipts WHERE id = $1`, id).Scan(
		&rc.ID, &rc.SupplierID, &rc.SupplierName, &rc.TotalAmount, &rc.Note, &rc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ImportReceipt{}, ErrNotFound
	}
	if err != nil {
		return ImportReceipt{}, fmt.Errorf("get receipt: %w", err)
	}

	items, err := r.receiptItems(ctx, id)
	if err != nil {
		return ImportReceipt{}, err
	}
	rc.Items = items
	return rc, nil
}

func (r *pgRepository) receiptItems(ctx context.Context, receiptID string) ([]ImportItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(product_id::text, ''), product_name, unit, category,
		       quantity, unit_cost, profit_percent
		FROM import_receipt_items
		WHERE receipt_id = $1
		ORDER BY line_no`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list receipt items: %w", err)
	}
	defer rows.Close()

	var items []ImportItem
	for rows.Next() {
		var it ImportItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Unit, &it.Category,
			&it.Quantity, &it.UnitCost, &it.ProfitPercent); err != nil {
			return nil, fmt.Errorf("scan receipt item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgRepository) ListReceipts(ctx context.Context, limit, offset int) ([]ImportReceipt, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier_id, supplier_name, total_amount, COALESCE(note, ''), created_at
		FROM import_receipts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	items := make([]ImportReceipt, 0, limit)
	for rows.Next() {
		var rc ImportReceipt
		if err := rows.Scan(&rc.ID, &rc.SupplierID, &rc.SupplierName,
			&rc.TotalAmount, &rc.Note, &rc.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan receipt: %w", err)
		}
		items = append(items, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM import_receipts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}
	return items, total, nil
}

func (r *pgRepository) DeleteReceipt(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM import_receipt_items WHERE receipt_id = $1`, id); err != nil {
			return fmt.Errorf("delete receipt items: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM import_receipts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
