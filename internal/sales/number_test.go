package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateInvoiceNumber(t *testing.T) {
	at := time.Date(2025, time.March, 7, 14, 30, 5, 123_000_000, time.UTC)
	num := GenerateInvoiceNumber(at)
	require.Regexp(t, `^INV-20250307-[0-9]{5}$`, num)

	// The suffix is the millisecond clock modulo 100000, zero padded.
	require.Equal(t, "INV-20250307-"+formatSuffix(at), num)
}

func formatSuffix(at time.Time) string {
	ms := at.UnixMilli() % 100000
	digits := []byte("00000")
	for i := 4; i >= 0 && ms > 0; i-- {
		digits[i] = byte('0' + ms%10)
		ms /= 10
	}
	return string(digits)
}

func TestGenerateInvoiceNumberZeroPads(t *testing.T) {
	at := time.UnixMilli(1700000000003).UTC()
	num := GenerateInvoiceNumber(at)
	require.Equal(t, "00003", num[len(num)-5:])
}
