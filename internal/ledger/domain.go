// Package ledger posts stock movements and keeps product valuation state
// consistent under concurrent writers.
package ledger

import (
	"errors"
	"time"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementPurchase     MovementType = "PURCHASE"
	MovementSale         MovementType = "SALE"
	MovementSaleReversal MovementType = "SALE_REVERSAL"
)

// PurchaseInput describes one purchase line applied to a product.
type PurchaseInput struct {
	ProductID string
	Quantity  int
	UnitCost  float64
	// ProfitPercent, when set, replaces the product margin before the
	// selling price is re-derived.
	ProfitPercent *float64
}

// ProductState is the slice of the product row the ledger reads and writes.
type ProductState struct {
	ID                 string
	TotalInStock       int
	TotalSold          int
	AverageImportPrice float64
	HighestImportPrice float64
	ProfitPercent      float64
	SellingPrice       float64
}

// Movement is one row of the stock movement journal.
type Movement struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"product_id"`
	Type         MovementType `json:"type"`
	Quantity     int          `json:"quantity"`
	UnitCost     float64      `json:"unit_cost"`
	BalanceQty   int          `json:"balance_qty"`
	BalanceValue float64      `json:"balance_value"`
	PostedAt     time.Time    `json:"posted_at"`
}

// Entry reports the product state after a posting together with the
// journal movement it produced.
type Entry struct {
	Movement Movement     `json:"movement"`
	Product  ProductState `json:"product"`
}

var (
	// ErrNotFound indicates the referenced product does not exist.
	ErrNotFound = errors.New("ledger: product not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")
	// ErrInvalidUnitCost indicates a negative unit cost.
	ErrInvalidUnitCost = errors.New("ledger: unit cost must not be negative")
)
