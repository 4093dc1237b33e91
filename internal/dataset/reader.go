package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoColumns is returned when a file has no header row.
var ErrNoColumns = errors.New("no columns to parse from file")

const utf8BOM = "\ufeff"

// ReadFile loads a CSV or Excel export into a Dataset, choosing the reader by
// file extension.
func ReadFile(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadExcel(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	}
}

// ReadCSV parses delimited text whose first record is the header.
// Records with more fields than the header are rejected; shorter records are
// padded with missing values. Stray quotes inside unquoted fields are kept as
// literal text.
func ReadCSV(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		br.Discard(len(utf8BOM))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		records = append(records, rec)
	}

	return FromRecords(header, records)
}

// ReadExcel parses the first sheet of a workbook whose first row is the header.
// Cells beyond the header width get "Unnamed: N" columns.
func ReadExcel(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoColumns
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNoColumns
	}

	header := rows[0]
	records := rows[1:]
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for i := len(header); i < width; i++ {
		header = append(header, "Unnamed: "+strconv.Itoa(i))
	}

	// Skip rows that are entirely blank, as the CSV reader does.
	kept := records[:0]
	for _, rec := range records {
		if !blank(rec) {
			kept = append(kept, rec)
		}
	}
	return FromRecords(header, kept)
}

// FromRecords builds a Dataset from raw text, inferring each column's kind: a
// column is numeric when every non-missing cell parses as a number.
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrNoColumns
	}
	names := mangleHeader(header)

	kinds := make([]Kind, len(names))
	for c := range names {
		kinds[c] = inferKind(records, c)
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Kind: kinds[i]}
	}
	ds := New(columns)
	ds.rows = make([]Row, 0, len(records))

	for r, rec := range records {
		row := make(Row, len(names))
		for c := range names {
			if c >= len(rec) {
				continue
			}
			v, err := ParseCell(rec[c], kinds[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, names[c], err)
			}
			row[c] = v
		}
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}

func inferKind(records [][]string, c int) Kind {
	kind := KindMissing
	for _, rec := range records {
		if c >= len(rec) || IsNAToken(rec[c]) {
			continue
		}
		if _, err := ParseNumber(rec[c]); err != nil {
			return KindString
		}
		kind = KindNumber
	}
	return kind
}

// mangleHeader strips a UTF-8 BOM and renames repeated names to "name.1",
// "name.2", ... so that every column is addressable.
func mangleHeader(header []string) []string {
	names := make([]string, len(header))
	copy(names, header)
	names[0] = strings.TrimPrefix(names[0], utf8BOM)

	used := make(map[string]struct{}, len(names))
	counts := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := used[name]; dup {
			base := name
			for {
				counts[base]++
				candidate := base + "." + strconv.Itoa(counts[base])
				if _, taken := used[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if cell != "" {
			return false
		}
	}
	return true
}
