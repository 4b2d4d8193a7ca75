package mztab

import (
	"fmt"
	"slices"
)

// CellError records a cell that could not be decoded as its column's type.
type CellError struct {
	Header string
	Raw    string
	Err    error
}

func (e CellError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Header, e.Err)
}

func (e CellError) Unwrap() error { return e.Err }

// Row is one data row of a table section. Values are keyed by the logical
// position of their column; a missing key is an absent (null) cell.
type Row struct {
	Section Section
	Values  map[LogicalPosition]Value

	// Extra holds raw cells of columns the header did not recognise.
	Extra map[string]string
	// Errors holds the cells that failed to decode. Their values are absent.
	Errors []CellError
}

// NewRow returns an empty row of section.
func NewRow(section Section) *Row {
	return &Row{Section: section, Values: make(map[LogicalPosition]Value)}
}

// Set stores v for col.
func (r *Row) Set(col Column, v Value) {
	if r.Values == nil {
		r.Values = make(map[LogicalPosition]Value)
	}
	r.Values[col.position] = v
}

// Get returns the value of col, Null when absent.
func (r *Row) Get(col Column) Value {
	if v, ok := r.Values[col.position]; ok && v != nil {
		return v
	}
	return Null{}
}

// EncodeRow renders r as its row prefix followed by one cell per column of f.
// Values for positions f does not know are reported, not dropped.
func EncodeRow(f *ColumnFactory, r *Row) ([]string, error) {
	if r.Section != f.section {
		return nil, fmt.Errorf("%w: %v row in %v table", ErrUnexpectedLine, r.Section, f.section)
	}
	for pos := range r.Values {
		if _, ok := f.columns[pos]; !ok {
			return nil, fmt.Errorf("%w: no column at %s in %v", ErrUnknownHeader, pos, f.section)
		}
	}
	fields := make([]string, 0, len(f.sorted)+1)
	fields = append(fields, f.section.RowPrefix())
	for _, pos := range f.sorted {
		enc, err := EncodeValue(r.Values[pos])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.columns[pos].header, err)
		}
		fields = append(fields, enc)
	}
	return fields, nil
}

// DecodeRow reads the fields of one data row against a parsed header. Cells
// of known columns are typed by the column; failures land in Row.Errors.
func DecodeRow(h *HeaderRow, fields []string) (*Row, error) {
	if len(fields) == 0 || fields[0] != h.Section.RowPrefix() {
		return nil, fmt.Errorf("%w: expected %s row", ErrUnexpectedLine, h.Section.RowPrefix())
	}
	cells := fields[1:]
	if len(cells) != len(h.Columns) {
		return nil, fmt.Errorf("%w: %d cells for %d columns", ErrMalformedValue, len(cells), len(h.Columns))
	}
	r := NewRow(h.Section)
	for i, hc := range h.Columns {
		raw := cells[i]
		if !hc.Known {
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[hc.Header] = raw
			continue
		}
		v, err := hc.Column.DecodeCell(raw)
		if err != nil {
			r.Errors = append(r.Errors, CellError{Header: hc.Header, Raw: raw, Err: err})
			continue
		}
		if !IsNull(v) {
			r.Values[hc.Column.position] = v
		}
	}
	return r, nil
}

// Cells returns the row's values in the column order of f.
func (r *Row) Cells(f *ColumnFactory) []Value {
	out := make([]Value, 0, len(f.sorted))
	for _, pos := range f.sorted {
		out = append(out, r.Get(f.columns[pos]))
	}
	return out
}

// Positions returns the positions holding a value, in ascending order.
func (r *Row) Positions() []LogicalPosition {
	out := make([]LogicalPosition, 0, len(r.Values))
	for pos := range r.Values {
		out = append(out, pos)
	}
	slices.SortFunc(out, LogicalPosition.Compare)
	return out
}
