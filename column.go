package mztab

import (
	"fmt"
	"strconv"
	"strings"
)

// ScalarType is the declared type of a column's cells.
type ScalarType int

const (
	TypeString ScalarType = iota
	TypeInteger
	TypeDouble
	TypeParameter
	TypeStringList
	TypeIntegerList
	TypeDoubleList
	TypeParameterList
)

var scalarTypeNames = [...]string{
	TypeString:        "string",
	TypeInteger:       "integer",
	TypeDouble:        "double",
	TypeParameter:     "parameter",
	TypeStringList:    "string_list",
	TypeIntegerList:   "integer_list",
	TypeDoubleList:    "double_list",
	TypeParameterList: "parameter_list",
}

func (t ScalarType) String() string {
	if t < 0 || int(t) >= len(scalarTypeNames) {
		return "ScalarType(" + strconv.Itoa(int(t)) + ")"
	}
	return scalarTypeNames[t]
}

// ColumnKind tells stable columns apart from the two optional families.
type ColumnKind int

const (
	ColumnStable ColumnKind = iota
	ColumnOptional
	ColumnAbundance
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnStable:
		return "stable"
	case ColumnOptional:
		return "optional"
	case ColumnAbundance:
		return "abundance"
	}
	return "ColumnKind(" + strconv.Itoa(int(k)) + ")"
}

// Header prefixes of optional columns.
const (
	optPrefix       = "opt_"
	optGlobalScope  = "global"
	optCVInfix      = "cv_"
	abundancePrefix = "abundance_"
)

// Column is one column of a table section. It is immutable: header and
// position are computed once by ColumnBuilder.Build.
type Column struct {
	kind     ColumnKind
	name     string
	dataType ScalarType
	order    int
	id       int
	element  *IndexedElement
	param    *Parameter
	header   string
	position LogicalPosition
}

// Name returns the column name without scope or index decoration.
func (c Column) Name() string { return c.name }

// DataType returns the declared cell type.
func (c Column) DataType() ScalarType { return c.dataType }

// Kind returns the column family.
func (c Column) Kind() ColumnKind { return c.kind }

// Optional reports whether the column is an optional or abundance column.
func (c Column) Optional() bool { return c.kind != ColumnStable }

// Order returns the two digit order slot.
func (c Column) Order() string { return FormatOrder(c.order) }

// ID returns the column's own sub-id, zero when absent.
func (c Column) ID() int { return c.id }

// Element returns the referenced element, if any.
func (c Column) Element() (IndexedElement, bool) {
	if c.element == nil {
		return IndexedElement{}, false
	}
	return *c.element, true
}

// Parameter returns the parameter a CV column was built from, if any.
func (c Column) Parameter() (Parameter, bool) {
	if c.param == nil {
		return Parameter{}, false
	}
	return *c.param, true
}

// Header returns the header string written in the section's header row.
func (c Column) Header() string { return c.header }

// Position returns the column's logical position.
func (c Column) Position() LogicalPosition { return c.position }

func (c Column) String() string { return c.header }

// ColumnBuilder assembles a Column. Builders are values; every With method
// returns a modified copy.
type ColumnBuilder struct {
	kind     ColumnKind
	name     string
	dataType ScalarType
	order    int
	id       int
	element  *IndexedElement
	param    *Parameter
}

// StableColumn starts a stable column at the given order.
func StableColumn(name string, dataType ScalarType, order int) ColumnBuilder {
	return ColumnBuilder{kind: ColumnStable, name: name, dataType: dataType, order: order}
}

// OptionalColumn starts a free-text optional column. It is global unless an
// element is attached.
func OptionalColumn(name string, dataType ScalarType) ColumnBuilder {
	return ColumnBuilder{kind: ColumnOptional, name: name, dataType: dataType}
}

// CVParamColumn starts an optional column named after a parameter's accession and name.
func CVParamColumn(param Parameter, dataType ScalarType) ColumnBuilder {
	p := param
	return ColumnBuilder{kind: ColumnOptional, name: param.Name, dataType: dataType, param: &p}
}

// AbundanceColumn starts an abundance column named e.g. "abundance_assay"
// that reports one value per referenced element.
func AbundanceColumn(name string, element IndexedElement) ColumnBuilder {
	el := element
	return ColumnBuilder{kind: ColumnAbundance, name: name, dataType: TypeDouble, element: &el}
}

// WithOrder sets the order slot.
func (b ColumnBuilder) WithOrder(order int) ColumnBuilder {
	b.order = order
	return b
}

// WithID sets the column's own sub-id, used by repeating stable families.
func (b ColumnBuilder) WithID(id int) ColumnBuilder {
	b.id = id
	return b
}

// WithElement attaches the referenced element.
func (b ColumnBuilder) WithElement(element IndexedElement) ColumnBuilder {
	el := element
	b.element = &el
	return b
}

// Build validates the builder and computes header and position.
func (b ColumnBuilder) Build() (Column, error) {
	if b.order < 1 {
		return Column{}, fmt.Errorf("%w: order %d of column %q", ErrInvalidIndex, b.order, b.name)
	}
	if b.id < 0 {
		return Column{}, fmt.Errorf("%w: id %d of column %q", ErrInvalidIndex, b.id, b.name)
	}
	if strings.TrimSpace(b.name) == "" {
		return Column{}, fmt.Errorf("%w: empty column name", ErrMalformedKey)
	}
	header, err := b.header()
	if err != nil {
		return Column{}, err
	}
	return Column{
		kind:     b.kind,
		name:     b.name,
		dataType: b.dataType,
		order:    b.order,
		id:       b.id,
		element:  b.element,
		param:    b.param,
		header:   header,
		position: NewLogicalPosition(b.order, b.id, b.element),
	}, nil
}

func (b ColumnBuilder) header() (string, error) {
	var ref string
	if b.element != nil {
		r, err := b.element.Reference()
		if err != nil {
			return "", fmt.Errorf("column %q: %w", b.name, err)
		}
		ref = r
	}

	switch b.kind {
	case ColumnStable:
		if b.id > 0 {
			return b.name + "[" + strconv.Itoa(b.id) + "]", nil
		}
		return b.name, nil
	case ColumnAbundance:
		if b.element == nil {
			return "", fmt.Errorf("%w: abundance column %q without element", ErrMissingIdentity, b.name)
		}
		return b.name + "[" + strconv.Itoa(b.element.ID) + "]", nil
	}

	scope := optGlobalScope
	if b.element != nil {
		scope = ref
	}
	if b.param != nil {
		if b.param.CVAccession == "" {
			return "", fmt.Errorf("%w: cv column %q without accession", ErrMalformedParameter, b.param.Name)
		}
		return optPrefix + scope + "_" + optCVInfix + b.param.CVAccession + "_" + columnToken(b.param.Name), nil
	}
	return optPrefix + scope + "_" + columnToken(b.name), nil
}

// columnToken replaces spaces so a name can be embedded in a header.
func columnToken(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// DecodeCell reads a raw cell according to the column's declared type. List
// types decode the null sentinel to an empty List.
func (c Column) DecodeCell(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	switch c.dataType {
	case TypeString:
		if isNullToken(s) {
			return Null{}, nil
		}
		return Str(raw), nil
	case TypeInteger:
		n, ok, err := DecodeInteger(s)
		if err != nil || !ok {
			return Null{}, err
		}
		return Int(n), nil
	case TypeDouble:
		f, ok, err := DecodeNumber(s)
		if err != nil || !ok {
			return Null{}, err
		}
		return Num(f), nil
	case TypeParameter:
		if s == "" || isNullToken(s) {
			return Null{}, nil
		}
		p, err := DecodeParameter(s)
		if err != nil {
			return Null{}, err
		}
		return Param(p), nil
	case TypeStringList:
		items := DecodeStrings(s)
		list := make(List, len(items))
		for i, item := range items {
			list[i] = Str(item)
		}
		return list, nil
	case TypeIntegerList:
		items, err := DecodeIntegers(s)
		if err != nil {
			return Null{}, err
		}
		list := make(List, len(items))
		for i, item := range items {
			list[i] = Int(item)
		}
		return list, nil
	case TypeDoubleList:
		items, err := DecodeNumbers(s)
		if err != nil {
			return Null{}, err
		}
		list := make(List, len(items))
		for i, item := range items {
			list[i] = Num(item)
		}
		return list, nil
	case TypeParameterList:
		items, err := DecodeParameters(s)
		if err != nil {
			return Null{}, err
		}
		list := make(List, len(items))
		for i, item := range items {
			list[i] = Param(item)
		}
		return list, nil
	}
	return Null{}, fmt.Errorf("%w: column %q has type %v", ErrMalformedValue, c.header, c.dataType)
}
