// Package catalog manages the product and supplier master data.
package catalog

import (
	"errors"
	"time"
)

// Product represents one stock-keeping unit together with its valuation state.
type Product struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	// Supplier is a display name captured at creation, not a foreign key.
	Supplier string `json:"supplier"`

	TotalInStock int `json:"total_in_stock"`
	TotalSold    int `json:"total_sold"`

	// AverageImportPrice is the quantity-weighted mean of all purchase costs
	// ever applied. HighestImportPrice is the maximum unit cost ever paid;
	// SellingPrice is derived from it, never edited directly by a purchase.
	AverageImportPrice float64 `json:"average_import_price"`
	HighestImportPrice float64 `json:"highest_import_price"`
	ProfitPercent      float64 `json:"profit_percent"`
	SellingPrice       float64 `json:"selling_price"`

	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is a master-data record for a goods supplier.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProductInput carries the fields accepted when registering a product.
type CreateProductInput struct {
	Name          string
	SKU           string
	Unit          string
	Category      string
	Supplier      string
	InitialStock  int
	ImportPrice   float64
	ProfitPercent float64
}

// UpdateProductInput lists optional field updates; nil fields are untouched.
type UpdateProductInput struct {
	Name          *string
	Unit          *string
	Category      *string
	Supplier      *string
	ProfitPercent *float64
}

// ProductPatch is the partial write shape handed to the repository.
type ProductPatch struct {
	Name          *string
	Unit          *string
	Category      *string
	Supplier      *string
	ProfitPercent *float64
	SellingPrice  *float64
	IsDeleted     *bool
}

var (
	// ErrNotFound indicates a missing product or supplier record.
	ErrNotFound = errors.New("catalog: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("catalog: invalid input")
	// ErrDuplicate indicates a unique-constraint conflict, e.g. a SKU collision.
	ErrDuplicate = errors.New("catalog: duplicate entry")
)
