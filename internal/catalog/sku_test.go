package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9]{1,3}-[1-9][0-9]{2}$`)

func TestGenerateSKU(t *testing.T) {
	cases := []struct {
		hint   string
		prefix string
	}{
		{hint: "Beverages", prefix: "B-"},
		{hint: "office supplies", prefix: "OS-"},
		{hint: "fresh cut flowers", prefix: "FCF-"},
		{hint: "a b c d", prefix: "ABC-"},
		{hint: "", prefix: "SP-"},
		{hint: "   ", prefix: "SP-"},
	}

	for _, tc := range cases {
		sku := GenerateSKU(tc.hint)
		require.Regexp(t, skuPattern, sku, "hint %q", tc.hint)
		require.True(t, len(sku) >= len(tc.prefix) && sku[:len(tc.prefix)] == tc.prefix,
			"hint %q produced %q, want prefix %q", tc.hint, sku, tc.prefix)
	}
}

func TestGenerateSKUSuffixRange(t *testing.T) {
	// The numeric suffix always stays within [100, 999].
	for i := 0; i < 200; i++ {
		require.Regexp(t, skuPattern, GenerateSKU("Widget"))
	}
}
