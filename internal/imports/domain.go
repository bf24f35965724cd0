// Package imports records goods receipts: batches of purchased lines applied
// to the catalog and the stock ledger.
package imports

import (
	"errors"
	"fmt"
	"time"
)

// ImportItem is one received line as entered, before any enrichment.
type ImportItem struct {
	ProductID     string   `json:"product_id,omitempty"`
	ProductName   string   `json:"product_name"`
	Unit          string   `json:"unit,omitempty"`
	Category      string   `json:"category,omitempty"`
	Quantity      int      `json:"quantity"`
	UnitCost      float64  `json:"unit_cost"`
	ProfitPercent *float64 `json:"profit_percent,omitempty"`
}

// ImportReceipt is the persisted document for one goods receipt.
type ImportReceipt struct {
	ID           string       `json:"id"`
	SupplierID   string       `json:"supplier_id"`
	SupplierName string       `json:"supplier_name"`
	Items        []ImportItem `json:"items"`
	TotalAmount  float64      `json:"total_amount"`
	Note         string       `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// RecordInput is the request to record a goods receipt.
type RecordInput struct {
	SupplierID   string
	SupplierName string
	Note         string
	Items        []ImportItem
}

var (
	// ErrNotFound indicates a missing receipt.
	ErrNotFound = errors.New("imports: receipt not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("imports: invalid input")
)

// LineError reports which receipt line failed. Lines before it have already
// been applied and stay applied; the caller sees exactly how far the batch
// got.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("imports: line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
