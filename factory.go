package mztab

import (
	"fmt"
	"slices"
	"strings"
)

// ColumnFactory owns the columns of one table section. Columns are only ever
// added; every insertion is checked before the factory is modified, so a
// failed call leaves it unchanged.
//
// A factory is mutated while a section's schema is being assembled. Once
// built it may be read from several goroutines; it is not safe for
// concurrent mutation.
type ColumnFactory struct {
	section Section

	stable   map[LogicalPosition]Column
	optional map[LogicalPosition]Column
	columns  map[LogicalPosition]Column

	sorted   []LogicalPosition
	byHeader map[string]LogicalPosition

	slots    map[string]int
	nextSlot int
}

// NewColumnFactory instantiates the stable columns of section. Repeating
// stable families are added later with AddStableColumn.
func NewColumnFactory(section Section) (*ColumnFactory, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedLine, section)
	}
	templates := sectionDefs[section].columns
	f := &ColumnFactory{
		section:  section,
		stable:   make(map[LogicalPosition]Column, len(templates)),
		optional: make(map[LogicalPosition]Column),
		columns:  make(map[LogicalPosition]Column, len(templates)),
		sorted:   make([]LogicalPosition, 0, len(templates)),
		byHeader: make(map[string]LogicalPosition, len(templates)),
		slots:    make(map[string]int),
		nextSlot: len(templates) + 1,
	}
	for i, t := range templates {
		if t.family {
			continue
		}
		col, err := StableColumn(t.name, t.dataType, i+1).Build()
		if err != nil {
			return nil, err
		}
		if err := f.insert(col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Section returns the section the factory describes.
func (f *ColumnFactory) Section() Section { return f.section }

// AddStableColumn adds one member of a repeating stable family, e.g.
// id_confidence_measure[2].
func (f *ColumnFactory) AddStableColumn(name string, id int) (Column, error) {
	t, order, ok := f.section.stableTemplateByName(name)
	if !ok || !t.family {
		return Column{}, fmt.Errorf("%w: %q is not a repeating column of %v", ErrColumnNotAllowed, name, f.section)
	}
	if id < 1 {
		return Column{}, fmt.Errorf("%w: %s[%d]", ErrInvalidIndex, t.name, id)
	}
	col, err := StableColumn(t.name, t.dataType, order).WithID(id).Build()
	if err != nil {
		return Column{}, err
	}
	if err := f.insert(col); err != nil {
		return Column{}, err
	}
	return col, nil
}

// AddOptionalColumn adds a global optional column, opt_global_{name}.
func (f *ColumnFactory) AddOptionalColumn(name string, dataType ScalarType) (Column, error) {
	return f.addOptional(OptionalColumn(name, dataType), optionalFamily(nil, "", name))
}

// AddElementOptionalColumn adds an optional column scoped to element,
// opt_{type}[{id}]_{name}.
func (f *ColumnFactory) AddElementOptionalColumn(element IndexedElement, name string, dataType ScalarType) (Column, error) {
	return f.addOptional(OptionalColumn(name, dataType).WithElement(element), optionalFamily(&element, "", name))
}

// AddCVParamOptionalColumn adds an optional column named after param's
// accession and name. A nil element makes the column global.
func (f *ColumnFactory) AddCVParamOptionalColumn(element *IndexedElement, param Parameter, dataType ScalarType) (Column, error) {
	b := CVParamColumn(param, dataType)
	if element != nil {
		b = b.WithElement(*element)
	}
	return f.addOptional(b, optionalFamily(element, param.CVAccession, param.Name))
}

// optionalFamily keys the order slot shared by optional columns that differ
// only in the id of the element they reference.
func optionalFamily(element *IndexedElement, accession, name string) string {
	scope := optGlobalScope
	if element != nil {
		scope = element.Kind.String()
	}
	key := scope + "/" + strings.ToLower(columnToken(name))
	if accession != "" {
		key = scope + "/" + optCVInfix + strings.ToLower(accession) + "/" + strings.ToLower(columnToken(name))
	}
	return key
}

func (f *ColumnFactory) addOptional(b ColumnBuilder, family string) (Column, error) {
	slot, known := f.slots[family]
	if !known {
		if f.nextSlot >= firstAbundanceOrder {
			return Column{}, fmt.Errorf("%w: %v", ErrPositionOverflow, f.section)
		}
		slot = f.nextSlot
	}
	col, err := b.WithOrder(slot).Build()
	if err != nil {
		return Column{}, err
	}
	if err := f.insert(col); err != nil {
		return Column{}, err
	}
	if !known {
		f.slots[family] = slot
		f.nextSlot++
	}
	return col, nil
}

// AddAbundanceAssayColumn adds abundance_assay[{id}] for assay.
func (f *ColumnFactory) AddAbundanceAssayColumn(assay IndexedElement) (Column, error) {
	if assay.Kind != KindAssay {
		return Column{}, fmt.Errorf("%w: %s is not an assay", ErrColumnNotAllowed, assay)
	}
	if !f.section.allowsAbundance(AbundanceAssay) {
		return Column{}, fmt.Errorf("%w: %s in %v", ErrColumnNotAllowed, AbundanceAssay, f.section)
	}
	col, err := AbundanceColumn(AbundanceAssay, assay).WithOrder(orderAbundanceAssay).Build()
	if err != nil {
		return Column{}, err
	}
	if err := f.insert(col); err != nil {
		return Column{}, err
	}
	return col, nil
}

// AddAbundanceStudyVariableColumns adds abundance_study_variable[{id}] and
// abundance_variation_study_variable[{id}] for sv. Either both are added or
// neither.
func (f *ColumnFactory) AddAbundanceStudyVariableColumns(sv IndexedElement) ([]Column, error) {
	if sv.Kind != KindStudyVariable {
		return nil, fmt.Errorf("%w: %s is not a study variable", ErrColumnNotAllowed, sv)
	}
	builders := []ColumnBuilder{
		AbundanceColumn(AbundanceStudyVariable, sv).WithOrder(orderAbundanceStudyVariable),
		AbundanceColumn(AbundanceVariationStudyVariable, sv).WithOrder(orderAbundanceVariationStudyVariable),
	}
	cols := make([]Column, 0, len(builders))
	for _, b := range builders {
		if !f.section.allowsAbundance(b.name) {
			return nil, fmt.Errorf("%w: %s in %v", ErrColumnNotAllowed, b.name, f.section)
		}
		col, err := b.Build()
		if err != nil {
			return nil, err
		}
		if err := f.check(col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	for _, col := range cols {
		f.commit(col)
	}
	return cols, nil
}

// insert checks col and adds it to every map it belongs to.
func (f *ColumnFactory) insert(col Column) error {
	if err := f.check(col); err != nil {
		return err
	}
	f.commit(col)
	return nil
}

func (f *ColumnFactory) check(col Column) error {
	if prev, dup := f.columns[col.position]; dup {
		return fmt.Errorf("%w: %s at %s already holds %s", ErrDuplicateLogicalPosition, col.header, col.position, prev.header)
	}
	if pos, dup := f.byHeader[strings.ToLower(col.header)]; dup {
		return fmt.Errorf("%w: header %s already used at %s", ErrDuplicateLogicalPosition, col.header, pos)
	}
	return nil
}

func (f *ColumnFactory) commit(col Column) {
	pos := col.position
	if col.Optional() {
		f.optional[pos] = col
	} else {
		f.stable[pos] = col
	}
	f.columns[pos] = col
	f.byHeader[strings.ToLower(col.header)] = pos
	i, _ := slices.BinarySearchFunc(f.sorted, pos, LogicalPosition.Compare)
	f.sorted = slices.Insert(f.sorted, i, pos)
}

// Len returns the number of columns.
func (f *ColumnFactory) Len() int { return len(f.sorted) }

// Columns returns all columns in ascending logical position.
func (f *ColumnFactory) Columns() []Column {
	return f.collect(func(Column) bool { return true })
}

// StableColumns returns the stable columns in ascending logical position.
func (f *ColumnFactory) StableColumns() []Column {
	return f.collect(func(c Column) bool { return !c.Optional() })
}

// OptionalColumns returns optional and abundance columns in ascending logical position.
func (f *ColumnFactory) OptionalColumns() []Column {
	return f.collect(Column.Optional)
}

// AbundanceColumns returns the abundance columns in ascending logical position.
func (f *ColumnFactory) AbundanceColumns() []Column {
	return f.collect(func(c Column) bool { return c.kind == ColumnAbundance })
}

func (f *ColumnFactory) collect(keep func(Column) bool) []Column {
	out := make([]Column, 0, len(f.sorted))
	for _, pos := range f.sorted {
		if col := f.columns[pos]; keep(col) {
			out = append(out, col)
		}
	}
	return out
}

// Header returns the header strings in column order.
func (f *ColumnFactory) Header() []string {
	out := make([]string, len(f.sorted))
	for i, pos := range f.sorted {
		out[i] = f.columns[pos].header
	}
	return out
}

// FindByHeader looks a column up by its header string, ignoring case.
func (f *ColumnFactory) FindByHeader(header string) (Column, bool) {
	pos, ok := f.byHeader[strings.ToLower(strings.TrimSpace(header))]
	if !ok {
		return Column{}, false
	}
	return f.columns[pos], true
}

// FindByPosition looks a column up by its logical position.
func (f *ColumnFactory) FindByPosition(pos LogicalPosition) (Column, bool) {
	col, ok := f.columns[pos]
	return col, ok
}
