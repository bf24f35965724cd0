// Package sales records sale invoices and keeps stock counters in step.
package sales

import (
	"errors"
	"time"
)

// InvoiceItem is one sold line. ProductName and UnitPrice are snapshots
// taken at sale time; later catalog edits do not rewrite past invoices.
type InvoiceItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Invoice is a persisted sale document.
type Invoice struct {
	ID           string        `json:"id"`
	Number       string        `json:"number"`
	CustomerName string        `json:"customer_name,omitempty"`
	Items        []InvoiceItem `json:"items"`
	TotalAmount  float64       `json:"total_amount"`
	Note         string        `json:"note,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// CreateInput is the request to record a sale.
type CreateInput struct {
	Number       string
	CustomerName string
	Note         string
	Items        []InvoiceItem
}

var (
	// ErrNotFound indicates a missing invoice.
	ErrNotFound = errors.New("sales: invoice not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("sales: invalid input")
	// ErrDuplicate indicates an invoice number collision.
	ErrDuplicate = errors.New("sales: duplicate invoice number")
)
