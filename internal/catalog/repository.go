package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort is the persistence surface the catalog service depends on.
type RepositoryPort interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error)
	FindProductsByName(ctx context.Context, query string, limit int) ([]Product, error)

	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed RepositoryPort.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &pgRepository{pool: pool}
}

const productColumns = `id, sku, name, unit, category, supplier,
	total_in_stock, total_sold, average_import_price, highest_import_price,
	profit_percent, selling_price, is_deleted, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Unit, &p.Category, &p.Supplier,
		&p.TotalInStock, &p.TotalSold, &p.AverageImportPrice, &p.HighestImportPrice,
		&p.ProfitPercent, &p.SellingPrice, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *pgRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (
			id, sku, name, unit, category, supplier,
			total_in_stock, total_sold, average_import_price, highest_import_price,
			profit_percent, selling_price
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+productColumns,
		p.ID, p.SKU, p.Name, p.Unit, p.Category, p.Supplier,
		p.TotalInStock, p.TotalSold, p.AverageImportPrice, p.HighestImportPrice,
		p.ProfitPercent, p.SellingPrice,
	)
	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, fmt.Errorf("%w: sku %s", ErrDuplicate, p.SKU)
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *pgRepository) GetProduct(ctx context.Context, id string) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgRepository) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Unit != nil {
		add("unit", *patch.Unit)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Supplier != nil {
		add("supplier", *patch.Supplier)
	}
	if patch.ProfitPercent != nil {
		add("profit_percent", *patch.ProfitPercent)
	}
	if patch.SellingPrice != nil {
		add("selling_price", *patch.SellingPrice)
	}
	if patch.IsDeleted != nil {
		add("is_deleted", *patch.IsDeleted)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE products SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+productColumns, args...)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (r *pgRepository) ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE is_deleted = FALSE`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return items, total, nil
}

// FindProductsByName ranks exact name matches first, then prefix matches,
// then substring matches, all case-insensitive and excluding deleted rows.
func (r *pgRepository) FindProductsByName(ctx context.Context, query string, limit int) ([]Product, error) {
	needle := strings.TrimSpace(query)
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_deleted = FALSE AND name ILIKE '%' || $1 || '%'
		ORDER BY
			CASE
				WHEN LOWER(name) = LOWER($1) THEN 0
				WHEN name ILIKE $1 || '%' THEN 1
				ELSE 2
			END,
			name
		LIMIT $2`, needle, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *pgRepository) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (id, name, phone, address)
		VALUES ($1,$2,$3,$4)
		RETURNING id, name, phone, address, created_at, updated_at`,
		s.ID, s.Name, s.Phone, s.Address)
	var created Supplier
	err := row.Scan(&created.ID, &created.Name, &created.Phone, &created.Address,
		&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Supplier{}, fmt.Errorf("%w: supplier %s", ErrDuplicate, s.Name)
		}
		return Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	return created, nil
}

func (r *pgRepository) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM suppliers WHERE id = $1`, id)
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

func (r *pgRepository) GetSupplierByName(ctx context.Context, name string) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM suppliers WHERE LOWER(name) = LOWER($1)`, strings.TrimSpace(name))
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, fmt.Errorf("get supplier by name: %w", err)
	}
	return s, nil
}

func (r *pgRepository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var items []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Address,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
