package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSellingPrice(t *testing.T) {
	cases := []struct {
		name   string
		cost   float64
		profit float64
		tax    float64
		want   float64
	}{
		{name: "margin and tax applied", cost: 1000, profit: 20, tax: 0.015, want: 1218},
		{name: "zero cost yields zero", cost: 0, profit: 20, tax: 0.015, want: 0},
		{name: "negative cost yields zero", cost: -500, profit: 20, tax: 0.015, want: 0},
		{name: "zero margin falls back to default", cost: 1000, profit: 0, tax: 0, want: 1100},
		{name: "negative margin falls back to default", cost: 1000, profit: -5, tax: 0, want: 1100},
		{name: "no tax", cost: 1600, profit: 20, tax: 0, want: 1920},
		{name: "rounds to whole unit", cost: 333, profit: 10, tax: 0, want: 366},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SellingPrice(tc.cost, tc.profit, tc.tax))
		})
	}
}

func TestSellingPricePure(t *testing.T) {
	first := SellingPrice(1234, 17, 0.015)
	second := SellingPrice(1234, 17, 0.015)
	require.Equal(t, first, second)
}

func TestSellingPriceNaNMargin(t *testing.T) {
	require.Equal(t, SellingPrice(1000, DefaultProfitPercent, 0), SellingPrice(1000, math.NaN(), 0))
}
