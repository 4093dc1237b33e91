package dataset

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the declared type of a column or the runtime type of a cell.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// naTokens are cell contents read as a missing value.
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNAToken reports whether raw cell text denotes a missing value.
func IsNAToken(raw string) bool {
	_, ok := naTokens[raw]
	return ok
}

// Value is one typed cell. The zero Value is missing.
type Value struct {
	kind Kind
	text string
	num  decimal.Decimal
}

// Missing returns an absent value.
func Missing() Value {
	return Value{}
}

// String returns a text value.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Number returns a numeric value. raw is the text written back on export;
// when empty the canonical decimal form is used.
func Number(d decimal.Decimal, raw string) Value {
	if raw == "" {
		raw = d.String()
	}
	return Value{kind: KindNumber, text: raw, num: d}
}

// ParseNumber converts raw cell text into a numeric value.
func ParseNumber(raw string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Value{}, err
	}
	return Number(d, raw), nil
}

// ParseCell converts raw text into a value of the given column kind.
// NA tokens always yield a missing value.
func ParseCell(raw string, kind Kind) (Value, error) {
	if IsNAToken(raw) {
		return Missing(), nil
	}
	switch kind {
	case KindNumber:
		return ParseNumber(raw)
	default:
		return String(raw), nil
	}
}

// Kind returns the runtime kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is absent.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text returns the cell text as read (empty for missing values).
func (v Value) Text() string { return v.text }

// Decimal returns the numeric value; ok is false for non-numeric values.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != KindNumber {
		return decimal.Zero, false
	}
	return v.num, true
}

// Equal reports typed equality: numbers compare by value, strings by text,
// and missing equals missing. A number never equals a string.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindString:
		return v.text == o.text
	default:
		return true
	}
}

// appendKey writes an unambiguous canonical encoding of v to b.
func (v Value) appendKey(b *strings.Builder) {
	switch v.kind {
	case KindNumber:
		s := v.num.String()
		b.WriteByte('n')
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	case KindString:
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(len(v.text)))
		b.WriteByte(':')
		b.WriteString(v.text)
	default:
		b.WriteByte('m')
	}
}
