package raffle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with grouped thousands and no decimal
// places, e.g. 12345 -> "12,345". Negative amounts keep their sign. The
// value is only rounded here, at display time; callers keep exact decimals
// internally.
func FormatAmount(amount decimal.Decimal) string {
	s := amount.Round(0).StringFixed(0)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
