// Package money formats decimal amounts the way the API reports them:
// two fractional digits and comma thousands separators.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders d with exactly two decimal places and comma-grouped
// integer digits, e.g. 1633.768 -> "1,633.77".
func Format(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3 + 1)
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
