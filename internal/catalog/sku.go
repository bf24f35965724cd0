package catalog

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

// skuFallbackPrefix is used when the hint yields no letters.
const skuFallbackPrefix = "SP"

// GenerateSKU builds a human-readable SKU from a category or name hint:
// the uppercased initials of the hint (at most three) followed by a random
// three-digit suffix. No uniqueness probe is performed here; the products
// table carries a unique index on sku and collisions surface as ErrDuplicate.
func GenerateSKU(hint string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(hint) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				count++
			}
			break
		}
		if count == 3 {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = skuFallbackPrefix
	}
	return fmt.Sprintf("%s-%d", prefix, 100+rand.Intn(900))
}
