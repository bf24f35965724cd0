// Package pricing derives selling prices from import cost, margin and tax.
package pricing

import "math"

// DefaultProfitPercent is applied when a product carries no usable margin.
const DefaultProfitPercent = 10

// SellingPrice computes the retail price for a unit cost.
//
// The margin is applied first, then the deployment-wide tax rate, and the
// result is rounded to zero decimal places. A non-positive or NaN margin
// falls back to DefaultProfitPercent. The function never fails: a zero or
// negative cost yields zero.
func SellingPrice(cost, profitPercent, taxRate float64) float64 {
	if math.IsNaN(profitPercent) || profitPercent <= 0 {
		profitPercent = DefaultProfitPercent
	}
	base := cost * (1 + profitPercent/100)
	price := base * (1 + taxRate)
	if price <= 0 || math.IsNaN(price) {
		return 0
	}
	return math.Round(price)
}
