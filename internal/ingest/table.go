package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is an in-memory tabular frame: one header row plus data rows.
// Columns are canonical names after aliasing; cell access is by column name.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table and its column index.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// HasColumn reports whether a canonical column is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, column), or "" when the column is absent
// or the row is ragged.
func (t *Table) Value(row int, column string) string {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][idx]
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// RenameColumn rewrites a header in place. No-op if from is absent.
func (t *Table) RenameColumn(from, to string) {
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	t.reindex()
}

// ReadCSV loads a CSV stream into a Table. Ragged rows are tolerated
// (FieldsPerRecord unchecked) because real exports pad or truncate trailing
// columns; missing cells read back as "".
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	return NewTable(header, rows), nil
}
