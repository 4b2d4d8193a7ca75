package mztab

import (
	"errors"
	"fmt"
)

// Construction-time errors. They signal a schema or programming mistake and
// abort the operation that produced them.
var (
	// ErrMissingIdentity is returned when an element is used as a reference before it received an id.
	ErrMissingIdentity = errors.New("mztab: element has no id")
	// ErrUnknownElementType is returned for a reference to an unregistered element kind.
	ErrUnknownElementType = errors.New("mztab: unknown element type")
	// ErrDuplicateLogicalPosition is returned when two columns resolve to the same sort key.
	ErrDuplicateLogicalPosition = errors.New("mztab: duplicate logical position")
	// ErrInvalidIndex is returned when a declared id is lower than 1.
	ErrInvalidIndex = errors.New("mztab: index must be >= 1")
	// ErrDuplicateElement is returned when the same element is declared twice in one metadata block.
	ErrDuplicateElement = errors.New("mztab: duplicate element")
	// ErrColumnNotAllowed is returned when a section does not carry the requested column family.
	ErrColumnNotAllowed = errors.New("mztab: column not allowed in section")
	// ErrPositionOverflow is returned when a section runs out of optional column slots.
	ErrPositionOverflow = errors.New("mztab: no free optional column slot")
)

// Decode-time errors. They are scoped to a single field or column and the
// caller decides whether to skip, substitute or escalate.
var (
	// ErrMalformedParameter is returned for a parameter that violates the bracket grammar.
	ErrMalformedParameter = errors.New("mztab: malformed parameter")
	// ErrUnknownHeader is returned when a header string matches no column.
	ErrUnknownHeader = errors.New("mztab: unknown column header")
	// ErrMalformedKey is returned for a metadata key that matches none of the key shapes.
	ErrMalformedKey = errors.New("mztab: malformed metadata key")
	// ErrMalformedValue is returned when a cell or metadata value cannot be read as its declared type.
	ErrMalformedValue = errors.New("mztab: malformed value")
	// ErrUnexpectedLine is returned for a line whose prefix is unknown or out of place.
	ErrUnexpectedLine = errors.New("mztab: unexpected line")
)

// ErrIllegalCharacter is returned by Writer for a field holding the delimiter or a line break.
var ErrIllegalCharacter = errors.New("mztab: field contains delimiter or line break")

// ParseError contains location information for decoding errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Column > 0 {
		return fmt.Sprintf("mztab: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("mztab: parse error on line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
