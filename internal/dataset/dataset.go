package dataset

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "exrecon/internal/errors"
)

// Column is a named, typed column of a Dataset.
type Column struct {
	Name string
	Kind Kind
}

// Row holds one value per dataset column, in column order.
type Row []Value

// Dataset is an ordered table with a fixed column set.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    []Row
}

// New creates an empty dataset with the given columns.
func New(columns []Column) *Dataset {
	d := &Dataset{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(d.columns, columns)
	for i, c := range d.columns {
		d.index[c.Name] = i
	}
	return d
}

// Columns returns a copy of the column definitions.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of a column by name.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Require returns a schema error for the first missing column.
func (d *Dataset) Require(names ...string) error {
	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return apperrors.NewSchemaError(name)
		}
	}
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns row i. The returned slice must not be modified.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Append adds a row. The row must have one value per column.
func (d *Dataset) Append(row Row) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("row has %d values, dataset has %d columns", len(row), len(d.columns))
	}
	d.rows = append(d.rows, row)
	return nil
}

// Value returns the value of the named column in row i; missing if the column
// does not exist.
func (d *Dataset) Value(i int, column string) Value {
	c, ok := d.index[column]
	if !ok {
		return Missing()
	}
	return d.rows[i][c]
}

// DecimalAt converts the named column of row i to a decimal. Missing values
// yield zero with ok=false. Text values must parse as a number, otherwise a
// type conversion error is returned.
func (d *Dataset) DecimalAt(i int, column string) (decimal.Decimal, bool, error) {
	v := d.Value(i, column)
	switch v.Kind() {
	case KindNumber:
		n, _ := v.Decimal()
		return n, true, nil
	case KindString:
		parsed, err := ParseNumber(v.Text())
		if err != nil {
			return decimal.Zero, false, apperrors.NewTypeConversionError(column, i, v.Text())
		}
		n, _ := parsed.Decimal()
		return n, true, nil
	default:
		return decimal.Zero, false, nil
	}
}

// Records renders every row as CSV text fields.
func (d *Dataset) Records() [][]string {
	out := make([][]string, len(d.rows))
	for i, row := range d.rows {
		out[i] = row.Strings()
	}
	return out
}

// Strings returns the original text of each cell, empty for missing.
func (r Row) Strings() []string {
	rec := make([]string, len(r))
	for j, v := range r {
		rec[j] = v.Text()
	}
	return rec
}

// RowKey returns a hashable key that is equal for two rows iff every value is
// equal under Value.Equal.
func RowKey(row Row) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		v.appendKey(&b)
	}
	return b.String()
}

// Distinct returns a dataset holding the first occurrence of every distinct
// row, and the number of rows dropped.
func (d *Dataset) Distinct() (*Dataset, int) {
	out := New(d.columns)
	seen := make(map[string]struct{}, len(d.rows))
	out.rows = make([]Row, 0, len(d.rows))
	for _, row := range d.rows {
		key := RowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.rows = append(out.rows, row)
	}
	return out, len(d.rows) - len(out.rows)
}

// Concat stacks datasets in order. The result has the union of their columns in
// first-seen order; rows from a dataset lacking a column hold a missing value.
// A column keeps its kind when every input agrees, otherwise it becomes a
// string column. Cell values keep their own kind either way.
func Concat(datasets ...*Dataset) *Dataset {
	var columns []Column
	pos := make(map[string]int)
	total := 0
	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		total += len(ds.rows)
		for _, c := range ds.columns {
			i, ok := pos[c.Name]
			if !ok {
				pos[c.Name] = len(columns)
				columns = append(columns, c)
				continue
			}
			columns[i].Kind = mergeKinds(columns[i].Kind, c.Kind)
		}
	}

	out := New(columns)
	out.rows = make([]Row, 0, total)
	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		mapping := make([]int, len(ds.columns))
		for j, c := range ds.columns {
			mapping[j] = pos[c.Name]
		}
		for _, row := range ds.rows {
			merged := make(Row, len(columns))
			for j, v := range row {
				merged[mapping[j]] = v
			}
			out.rows = append(out.rows, merged)
		}
	}
	return out
}

// Merge concatenates datasets and drops duplicate rows, keeping the first
// occurrence. It returns the number of rows dropped.
func Merge(datasets ...*Dataset) (*Dataset, int) {
	return Concat(datasets...).Distinct()
}

func mergeKinds(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindMissing:
		return b
	case b == KindMissing:
		return a
	default:
		return KindString
	}
}
