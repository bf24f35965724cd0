package sales

import (
	"fmt"
	"time"
)

// GenerateInvoiceNumber derives a display number from the creation instant:
// the date followed by the last five digits of the Unix-millisecond clock.
// Two sales in the same millisecond would collide; the unique index on the
// invoices table turns that into ErrDuplicate rather than silent reuse.
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%05d", now.Format("20060102"), now.UnixMilli()%100000)
}
