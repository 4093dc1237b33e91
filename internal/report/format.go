package report

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatAmount renders d with thousands separators and two decimals, rounding
// half to even: 1234.5 becomes "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	r := d.RoundBank(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	whole := r.Truncate(0)
	frac := r.Sub(whole).StringFixed(2) // "0.xx"
	return sign + humanize.BigComma(whole.BigInt()) + frac[1:]
}

// FormatMoney is FormatAmount with a leading dollar sign.
func FormatMoney(d decimal.Decimal) string {
	return "$" + FormatAmount(d)
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
