package mztab

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oleg578/mztab/internal/metrics"
)

// Record is one decoded line: *MetadataLine, *Comment, *HeaderRow or *Row.
type Record interface {
	record()
}

func (*MetadataLine) record() {}
func (*Comment) record()      {}
func (*HeaderRow) record()    {}
func (*Row) record()          {}

// Comment is a COM line.
type Comment struct {
	Text string
}

// Table is one section's header and rows.
type Table struct {
	Header *HeaderRow
	Rows   []*Row
}

// Section returns the table's section.
func (t *Table) Section() Section { return t.Header.Section }

// Factory returns the table's column factory.
func (t *Table) Factory() *ColumnFactory { return t.Header.Factory }

// AddRow appends r after checking that it belongs to the table's section.
func (t *Table) AddRow(r *Row) error {
	if r.Section != t.Header.Section {
		return fmt.Errorf("%w: %v row in %v table", ErrUnexpectedLine, r.Section, t.Header.Section)
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// Document is a fully decoded file.
type Document struct {
	Comments []Comment
	Metadata []MetadataLine
	Elements *ElementRegistry
	Tables   []*Table
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Elements: NewElementRegistry()}
}

// AddTable appends a table for the factory's section. Each section may
// appear once.
func (d *Document) AddTable(f *ColumnFactory) (*Table, error) {
	if d.Table(f.section) != nil {
		return nil, fmt.Errorf("%w: second %v table", ErrUnexpectedLine, f.section)
	}
	t := &Table{Header: NewHeaderRow(f)}
	d.Tables = append(d.Tables, t)
	return t, nil
}

// Table returns the table of section, or nil.
func (d *Document) Table(section Section) *Table {
	for _, t := range d.Tables {
		if t.Header.Section == section {
			return t
		}
	}
	return nil
}

// Lines returns the metadata lines whose key matches key exactly.
func (d *Document) Lines(key string) []MetadataLine {
	var out []MetadataLine
	for _, l := range d.Metadata {
		if l.Key == key {
			out = append(out, l)
		}
	}
	return out
}

// ParameterVisitor receives a decoded parameter and the path it was found at:
// the metadata key, or "{row prefix}[{row}]/{header}" for table cells.
type ParameterVisitor func(path string, p Parameter)

// WalkParameters hands every parameter of the document to visit, in
// document order.
func (d *Document) WalkParameters(visit ParameterVisitor) {
	for _, l := range d.Metadata {
		for _, p := range l.Parameters() {
			visit(l.Key, p)
		}
	}
	for _, t := range d.Tables {
		cols := t.Header.Factory.Columns()
		for i, r := range t.Rows {
			for _, col := range cols {
				path := fmt.Sprintf("%s[%d]/%s", t.Section().RowPrefix(), i+1, col.header)
				for _, p := range appendParameters(nil, r.Get(col)) {
					visit(path, p)
				}
			}
		}
	}
}

// Decoder reads records from a stream.
type Decoder struct {
	r *Reader

	// Strict turns recoverable failures (unknown headers, undecodable cells,
	// malformed metadata lines, unknown prefixes) into errors.
	Strict bool
	// Logger receives recoverable failures at warn level.
	Logger zerolog.Logger
	// Metrics counts decoded lines and failures. May be nil.
	Metrics *metrics.Metrics
	// Elements collects the elements declared by metadata keys.
	Elements *ElementRegistry

	headers map[Section]*HeaderRow
}

// NewDecoder returns a decoder reading from src.
func NewDecoder(src io.Reader) *Decoder {
	return &Decoder{
		r:        NewReader(src),
		Logger:   zerolog.Nop(),
		Elements: NewElementRegistry(),
		headers:  make(map[Section]*HeaderRow),
	}
}

// Header returns the parsed header of section, or nil if none was read yet.
func (d *Decoder) Header(section Section) *HeaderRow {
	return d.headers[section]
}

// Next returns the next record. It returns io.EOF at the end of the stream.
func (d *Decoder) Next() (Record, error) {
	for {
		fields, err := d.r.Read()
		if err != nil {
			return nil, err
		}
		line := d.r.Line()
		prefix := strings.TrimSpace(fields[0])
		d.Metrics.LineDecoded(prefixLabel(prefix))

		rec, err := d.decodeLine(prefix, fields, line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = line
				return nil, perr
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		if rec != nil {
			return rec, nil
		}
	}
}

// prefixLabel bounds the metric label set to the known line prefixes.
func prefixLabel(prefix string) string {
	switch prefix {
	case MetadataPrefix, CommentPrefix:
		return prefix
	}
	if _, ok := SectionByHeaderPrefix(prefix); ok {
		return prefix
	}
	if _, ok := SectionByRowPrefix(prefix); ok {
		return prefix
	}
	return "other"
}

// decodeLine returns a nil record for a skipped line.
func (d *Decoder) decodeLine(prefix string, fields []string, line int) (Record, error) {
	switch prefix {
	case MetadataPrefix:
		ml, err := DecodeMetadataLine(fields)
		if err != nil {
			return nil, d.soft(line, "metadata", err)
		}
		key, _ := ml.ParsedKey()
		if key.IsElement() {
			if _, err := d.Elements.Ensure(key.Element.Kind, key.Element.ID); err != nil {
				return nil, err
			}
		}
		return &ml, nil
	case CommentPrefix:
		return &Comment{Text: strings.Join(fields[1:], "\t")}, nil
	}

	if section, ok := SectionByHeaderPrefix(prefix); ok {
		return d.decodeHeader(section, fields, line)
	}
	if section, ok := SectionByRowPrefix(prefix); ok {
		return d.decodeRow(section, fields, line)
	}
	return nil, d.soft(line, "prefix", fmt.Errorf("%w: prefix %q", ErrUnexpectedLine, prefix))
}

func (d *Decoder) decodeHeader(section Section, fields []string, line int) (Record, error) {
	if _, dup := d.headers[section]; dup {
		return nil, fmt.Errorf("%w: second %s header", ErrUnexpectedLine, section.HeaderPrefix())
	}
	h, err := ParseHeader(section, fields[1:])
	if err != nil {
		return nil, err
	}
	for _, name := range h.Unknown {
		d.Metrics.DecodeFailure("unknown_header")
		d.Logger.Warn().
			Int("line", line).
			Str("section", section.String()).
			Str("header", name).
			Msg("unrecognised column header")
		if d.Strict {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, name)
		}
	}
	d.headers[section] = h
	return h, nil
}

func (d *Decoder) decodeRow(section Section, fields []string, line int) (Record, error) {
	h := d.headers[section]
	if h == nil {
		return nil, fmt.Errorf("%w: %s row before %s header", ErrUnexpectedLine, section.RowPrefix(), section.HeaderPrefix())
	}
	r, err := DecodeRow(h, fields)
	if err != nil {
		return nil, err
	}
	for _, ce := range r.Errors {
		d.Metrics.DecodeFailure(failureKind(ce.Err))
		d.Logger.Warn().
			Int("line", line).
			Str("section", section.String()).
			Str("header", ce.Header).
			Str("raw", ce.Raw).
			Err(ce.Err).
			Msg("undecodable cell")
		if d.Strict {
			return nil, ce
		}
	}
	return r, nil
}

// soft logs and counts a recoverable line failure. It returns err in strict
// mode and nil otherwise, which skips the line.
func (d *Decoder) soft(line int, what string, err error) error {
	d.Metrics.DecodeFailure(failureKind(err))
	d.Logger.Warn().Int("line", line).Str("kind", what).Err(err).Msg("skipping line")
	if d.Strict {
		return err
	}
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedParameter):
		return "malformed_parameter"
	case errors.Is(err, ErrUnknownHeader):
		return "unknown_header"
	case errors.Is(err, ErrMalformedKey):
		return "malformed_key"
	case errors.Is(err, ErrUnknownElementType):
		return "unknown_element_type"
	case errors.Is(err, ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, ErrUnexpectedLine):
		return "unexpected_line"
	}
	return "malformed_value"
}

// DecodeAll reads the remaining stream into a Document.
func (d *Decoder) DecodeAll() (*Document, error) {
	doc := &Document{Elements: d.Elements}
	tables := make(map[Section]*Table)
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return doc, nil
		}
		if err != nil {
			return nil, err
		}
		switch rec := rec.(type) {
		case *MetadataLine:
			doc.Metadata = append(doc.Metadata, *rec)
		case *Comment:
			doc.Comments = append(doc.Comments, *rec)
		case *HeaderRow:
			t := &Table{Header: rec}
			tables[rec.Section] = t
			doc.Tables = append(doc.Tables, t)
		case *Row:
			t := tables[rec.Section]
			t.Rows = append(t.Rows, rec)
		}
	}
}

// Decode reads a whole document from src.
func Decode(src io.Reader) (*Document, error) {
	return NewDecoder(src).DecodeAll()
}

// Encoder writes records to a stream.
type Encoder struct {
	w *Writer

	// Metrics counts written lines. May be nil.
	Metrics *metrics.Metrics
}

// NewEncoder returns an encoder writing to dst.
func NewEncoder(dst io.Writer) *Encoder {
	return &Encoder{w: NewWriter(dst)}
}

// Writer exposes the underlying line writer for configuration.
func (e *Encoder) Writer() *Writer { return e.w }

func (e *Encoder) writeLine(fields []string) error {
	if err := e.w.Write(fields); err != nil {
		return err
	}
	e.Metrics.LineEncoded(fields[0])
	return nil
}

// WriteComment writes a COM line. Tabs in text separate fields.
func (e *Encoder) WriteComment(text string) error {
	return e.writeLine(append([]string{CommentPrefix}, strings.Split(text, "\t")...))
}

// WriteMetadata writes metadata lines, omitting suppressed ones.
func (e *Encoder) WriteMetadata(lines ...MetadataLine) error {
	for _, l := range lines {
		fields, ok, err := EncodeMetadataLine(l)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := e.writeLine(fields); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeader writes the header row of f.
func (e *Encoder) WriteHeader(f *ColumnFactory) error {
	fields := make([]string, 0, f.Len()+1)
	fields = append(fields, f.section.HeaderPrefix())
	fields = append(fields, f.Header()...)
	return e.writeLine(fields)
}

// WriteRow writes one data row aligned to f.
func (e *Encoder) WriteRow(f *ColumnFactory, r *Row) error {
	fields, err := EncodeRow(f, r)
	if err != nil {
		return err
	}
	return e.writeLine(fields)
}

// WriteBlank writes an empty separator line.
func (e *Encoder) WriteBlank() error {
	return e.w.WriteBlank()
}

// Flush flushes buffered output to the destination.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Encode writes doc: comments, metadata, then every table preceded by a
// blank line, and flushes.
func (e *Encoder) Encode(doc *Document) error {
	for _, c := range doc.Comments {
		if err := e.WriteComment(c.Text); err != nil {
			return err
		}
	}
	if err := e.WriteMetadata(doc.Metadata...); err != nil {
		return err
	}
	for _, t := range doc.Tables {
		if err := e.WriteBlank(); err != nil {
			return err
		}
		f := t.Header.Factory
		if err := e.WriteHeader(f); err != nil {
			return err
		}
		for _, r := range t.Rows {
			if err := e.WriteRow(f, r); err != nil {
				return err
			}
		}
	}
	return e.Flush()
}

// Encode writes doc to dst.
func Encode(dst io.Writer, doc *Document) error {
	return NewEncoder(dst).Encode(doc)
}
