package mztab

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved tokens.
const (
	NullToken   = "null"
	NaNToken    = "NaN"
	InfToken    = "Inf"
	NegInfToken = "-Inf"

	// CalculateErrorToken is read as NaN.
	CalculateErrorToken = "CALCULATE_ERROR"
)

// ListSeparator joins list elements inside one field.
const ListSeparator = '|'

// ReferenceSeparator joins element references.
const ReferenceSeparator = ", "

// Value is a decoded or to-be-encoded field value. The set of
// implementations is closed: Str, Num, Param, List and Null.
type Value interface {
	isValue()
}

// Str is a text value.
type Str string

// Num is a numeric value. NaN and infinities use the sentinel tokens.
type Num float64

// Param is a parameter value.
type Param Parameter

// List is an ordered list of values joined with ListSeparator.
type List []Value

// Null is the absent value.
type Null struct{}

func (Str) isValue()   {}
func (Num) isValue()   {}
func (Param) isValue() {}
func (List) isValue()  {}
func (Null) isValue()  {}

// Int returns n as a Num.
func Int(n int) Num { return Num(float64(n)) }

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

// EncodeValue renders v in its field form.
func EncodeValue(v Value) (string, error) {
	switch v := v.(type) {
	case nil, Null:
		return NullToken, nil
	case Str:
		return string(v), nil
	case Num:
		return EncodeNumber(float64(v)), nil
	case Param:
		return EncodeParameter(Parameter(v))
	case List:
		return EncodeList(v)
	default:
		return "", fmt.Errorf("%w: unsupported value %T", ErrMalformedValue, v)
	}
}

// EncodeNumber renders f using the NaN and infinity sentinels for non-finite values.
func EncodeNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return NaNToken
	case math.IsInf(f, 1):
		return InfToken
	case math.IsInf(f, -1):
		return NegInfToken
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EncodeOptionalNumber renders nil as the null sentinel.
func EncodeOptionalNumber(f *float64) string {
	if f == nil {
		return NullToken
	}
	return EncodeNumber(*f)
}

// DecodeNumber parses a numeric field. ok is false for the null sentinel.
func DecodeNumber(s string) (f float64, ok bool, err error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || isNullToken(s):
		return 0, false, nil
	case strings.EqualFold(s, NaNToken), s == CalculateErrorToken:
		return math.NaN(), true, nil
	case strings.EqualFold(s, InfToken), strings.EqualFold(s, "+Inf"), strings.EqualFold(s, "Infinity"):
		return math.Inf(1), true, nil
	case strings.EqualFold(s, NegInfToken), strings.EqualFold(s, "-Infinity"):
		return math.Inf(-1), true, nil
	}
	f, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: number %q", ErrMalformedValue, s)
	}
	return f, true, nil
}

// maxExactInteger is the largest magnitude Num holds without rounding.
const maxExactInteger = 1 << 53

// DecodeInteger parses an integer field. ok is false for the null sentinel.
func DecodeInteger(s string) (n int, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || isNullToken(s) {
		return 0, false, nil
	}
	n, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: integer %q", ErrMalformedValue, s)
	}
	if int64(n) > maxExactInteger || int64(n) < -maxExactInteger {
		return 0, false, fmt.Errorf("%w: integer %q exceeds float64 precision", ErrMalformedValue, s)
	}
	return n, true, nil
}

func isNullToken(s string) bool {
	return strings.EqualFold(s, NullToken)
}

// EncodeList joins the non-null elements with ListSeparator. A list with no
// non-null element encodes as the null sentinel.
func EncodeList(values []Value) (string, error) {
	var b strings.Builder
	n := 0
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		if _, nested := v.(List); nested {
			return "", fmt.Errorf("%w: nested list", ErrMalformedValue)
		}
		enc, err := EncodeValue(v)
		if err != nil {
			return "", err
		}
		if n > 0 {
			b.WriteByte(ListSeparator)
		}
		b.WriteString(enc)
		n++
	}
	if n == 0 {
		return NullToken, nil
	}
	return b.String(), nil
}

// EncodeStrings is EncodeList for plain strings. Empty strings count as null.
func EncodeStrings(items []string) string {
	values := make([]Value, 0, len(items))
	for _, s := range items {
		if s != "" {
			values = append(values, Str(s))
		}
	}
	enc, _ := EncodeList(values) // Str never fails
	return enc
}

// DecodeList splits s on sep, trims each token and decodes it. The null
// sentinel and the empty string decode to an empty list; null tokens inside
// the list are skipped.
func DecodeList[T any](s string, sep byte, decode func(string) (T, error)) ([]T, error) {
	s = strings.TrimSpace(s)
	if s == "" || isNullToken(s) {
		return []T{}, nil
	}
	parts := strings.Split(s, string(sep))
	out := make([]T, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || isNullToken(part) {
			continue
		}
		v, err := decode(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeStrings splits a bar separated string list.
func DecodeStrings(s string) []string {
	out, _ := DecodeList(s, ListSeparator, func(t string) (string, error) { return t, nil })
	return out
}

// DecodeNumbers splits a bar separated numeric list.
func DecodeNumbers(s string) ([]float64, error) {
	return DecodeList(s, ListSeparator, func(t string) (float64, error) {
		f, _, err := DecodeNumber(t)
		return f, err
	})
}

// DecodeIntegers splits a bar separated integer list.
func DecodeIntegers(s string) ([]int, error) {
	return DecodeList(s, ListSeparator, func(t string) (int, error) {
		n, _, err := DecodeInteger(t)
		return n, err
	})
}

// EncodeReferences joins element references with ReferenceSeparator. An
// empty list encodes as the null sentinel.
func EncodeReferences(elements []IndexedElement) (string, error) {
	if len(elements) == 0 {
		return NullToken, nil
	}
	parts := make([]string, len(elements))
	for i, el := range elements {
		ref, err := el.Reference()
		if err != nil {
			return "", err
		}
		parts[i] = ref
	}
	return strings.Join(parts, ReferenceSeparator), nil
}

// DecodeReferences parses a reference list separated by commas or bars.
func DecodeReferences(s string) ([]IndexedElement, error) {
	s = strings.ReplaceAll(s, string(ListSeparator), ",")
	return DecodeList(s, ',', ParseReference)
}

// DecodeMetadataValue maps one raw metadata field onto a Value: a parameter,
// a parameter list, or otherwise a string. A null literal present in the
// field stays a Str so that re-encoding writes it back.
func DecodeMetadataValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if isNullToken(s) {
		return Str(raw)
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if p, err := DecodeParameter(s); err == nil {
			return Param(p)
		}
		if params, err := DecodeParameters(s); err == nil && len(params) > 1 {
			list := make(List, len(params))
			for i, p := range params {
				list[i] = Param(p)
			}
			return list
		}
	}
	return Str(raw)
}
