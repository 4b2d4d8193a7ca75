package mztab

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// HeaderColumn maps one physical header cell to its column.
type HeaderColumn struct {
	Header string
	Column Column
	Known  bool
}

// HeaderRow is a parsed table header: the factory rebuilt from the header
// strings and the physical column order of the file.
type HeaderRow struct {
	Section Section
	Factory *ColumnFactory
	Columns []HeaderColumn
	Unknown []string
}

// NewHeaderRow returns the header a factory encodes to, with physical order
// equal to logical order.
func NewHeaderRow(f *ColumnFactory) *HeaderRow {
	cols := f.Columns()
	h := &HeaderRow{Section: f.section, Factory: f, Columns: make([]HeaderColumn, len(cols))}
	for i, col := range cols {
		h.Columns[i] = HeaderColumn{Header: col.header, Column: col, Known: true}
	}
	return h
}

// ParseHeader rebuilds the columns of section from the header cells that
// follow the header prefix. Headers that match no column shape are kept in
// Unknown and do not fail the parse. A repeated header or an invalid index
// does.
func ParseHeader(section Section, headers []string) (*HeaderRow, error) {
	f, err := NewColumnFactory(section)
	if err != nil {
		return nil, err
	}
	h := &HeaderRow{Section: section, Factory: f, Columns: make([]HeaderColumn, 0, len(headers))}
	seen := make(map[string]bool, len(headers))
	for i, raw := range headers {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if seen[key] {
			return nil, &ParseError{Column: i + 2, Err: fmt.Errorf("%w: header %s repeated", ErrDuplicateLogicalPosition, name)}
		}
		seen[key] = true

		col, err := f.resolveHeader(name)
		switch {
		case err == nil:
			h.Columns = append(h.Columns, HeaderColumn{Header: name, Column: col, Known: true})
		case errors.Is(err, ErrUnknownHeader), errors.Is(err, ErrColumnNotAllowed), errors.Is(err, ErrUnknownElementType):
			h.Columns = append(h.Columns, HeaderColumn{Header: name})
			h.Unknown = append(h.Unknown, name)
		default:
			return nil, &ParseError{Column: i + 2, Err: err}
		}
	}
	return h, nil
}

// Header returns the physical header cells.
func (h *HeaderRow) Header() []string {
	out := make([]string, len(h.Columns))
	for i, c := range h.Columns {
		out[i] = c.Header
	}
	return out
}

// resolveHeader finds or creates the column a header string names.
func (f *ColumnFactory) resolveHeader(header string) (Column, error) {
	if col, ok := f.FindByHeader(header); ok {
		return col, nil
	}
	lower := strings.ToLower(header)
	if strings.HasPrefix(lower, optPrefix) {
		return f.resolveOptionalHeader(header[len(optPrefix):])
	}
	name, id, ok := splitIndexed(header)
	if !ok {
		return Column{}, fmt.Errorf("%w: %s", ErrUnknownHeader, header)
	}
	switch strings.ToLower(name) {
	case AbundanceAssay:
		el, err := NewIndexedElement(KindAssay, id)
		if err != nil {
			return Column{}, err
		}
		return f.AddAbundanceAssayColumn(el)
	case AbundanceStudyVariable, AbundanceVariationStudyVariable:
		el, err := NewIndexedElement(KindStudyVariable, id)
		if err != nil {
			return Column{}, err
		}
		if _, err := f.AddAbundanceStudyVariableColumns(el); err != nil {
			return Column{}, err
		}
		col, _ := f.FindByHeader(header)
		return col, nil
	}
	if t, _, ok := f.section.stableTemplateByName(name); ok && t.family {
		return f.AddStableColumn(t.name, id)
	}
	return Column{}, fmt.Errorf("%w: %s", ErrUnknownHeader, header)
}

// resolveOptionalHeader handles the part of an opt_ header after the prefix:
// "global_{name}", "{type}[{id}]_{name}", optionally with "cv_{accession}_"
// in front of the name.
func (f *ColumnFactory) resolveOptionalHeader(rest string) (Column, error) {
	if strings.ContainsFunc(rest, unicode.IsSpace) {
		// a rebuilt header would carry underscores instead
		return Column{}, fmt.Errorf("%w: whitespace in opt_%s", ErrUnknownHeader, rest)
	}
	var element *IndexedElement
	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(lower, optGlobalScope+"_"):
		rest = rest[len(optGlobalScope)+1:]
	default:
		end := strings.Index(rest, "]_")
		if end < 0 {
			return Column{}, fmt.Errorf("%w: opt_%s", ErrUnknownHeader, rest)
		}
		ref := rest[:end+1]
		open := strings.IndexByte(ref, '[')
		if open > 0 {
			ref = strings.ToLower(ref[:open]) + ref[open:]
		}
		el, err := ParseReference(ref)
		if err != nil {
			if errors.Is(err, ErrMalformedKey) {
				return Column{}, fmt.Errorf("%w: opt_%s", ErrUnknownHeader, rest)
			}
			return Column{}, err
		}
		element = &el
		rest = rest[end+2:]
	}
	if rest == "" {
		return Column{}, fmt.Errorf("%w: optional column without name", ErrUnknownHeader)
	}

	if strings.HasPrefix(strings.ToLower(rest), optCVInfix) {
		cv := rest[len(optCVInfix):]
		if sep := strings.IndexByte(cv, '_'); sep > 0 && sep < len(cv)-1 {
			accession := cv[:sep]
			param := Parameter{CVLabel: cvLabelOf(accession), CVAccession: accession, Name: cv[sep+1:]}
			return f.AddCVParamOptionalColumn(element, param, TypeString)
		}
	}
	if element != nil {
		return f.AddElementOptionalColumn(*element, rest, TypeString)
	}
	return f.AddOptionalColumn(rest, TypeString)
}

// cvLabelOf returns the ontology prefix of an accession such as "MS:1000001".
func cvLabelOf(accession string) string {
	if i := strings.IndexByte(accession, ':'); i > 0 {
		return accession[:i]
	}
	return ""
}
