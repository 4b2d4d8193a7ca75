package mztab

import (
	"fmt"
	"strconv"
	"strings"
)

// MetadataKey is the parsed form of a metadata line key. Element keys have a
// valid Element; keyword keys such as "mzTab-version" set Keyword instead.
type MetadataKey struct {
	Element  IndexedElement
	Keyword  string
	Property string
	SubIndex int
}

// IsElement reports whether the key addresses an indexed element.
func (k MetadataKey) IsElement() bool { return k.Element.Kind.Valid() }

// Encode renders the key as written in the second field of a metadata line.
func (k MetadataKey) Encode() (string, error) {
	if !k.IsElement() {
		if !validKeyword(k.Keyword) {
			return "", fmt.Errorf("%w: keyword %q", ErrMalformedKey, k.Keyword)
		}
		return k.Keyword, nil
	}
	ref, err := k.Element.Reference()
	if err != nil {
		return "", err
	}
	if k.Property == "" {
		if k.SubIndex != 0 {
			return "", fmt.Errorf("%w: sub-index without property in %s", ErrMalformedKey, ref)
		}
		return ref, nil
	}
	if !validProperty(k.Property) {
		return "", fmt.Errorf("%w: property %q of %s", ErrMalformedKey, k.Property, ref)
	}
	switch {
	case k.SubIndex < 0:
		return "", fmt.Errorf("%w: %s-%s[%d]", ErrInvalidIndex, ref, k.Property, k.SubIndex)
	case k.SubIndex > 0:
		return ref + "-" + k.Property + "[" + strconv.Itoa(k.SubIndex) + "]", nil
	}
	return ref + "-" + k.Property, nil
}

// String returns the encoded key, or a diagnostic form when it cannot be encoded.
func (k MetadataKey) String() string {
	s, err := k.Encode()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}

// ParseMetadataKey parses one of "{element}[id]", "{element}[id]-{property}",
// "{element}[id]-{property}[sub]" or a bare keyword.
func ParseMetadataKey(s string) (MetadataKey, error) {
	s = strings.TrimSpace(s)
	closing := strings.IndexByte(s, ']')
	if closing < 0 {
		if !validKeyword(s) {
			return MetadataKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
		}
		return MetadataKey{Keyword: s}, nil
	}

	el, err := ParseReference(s[:closing+1])
	if err != nil {
		return MetadataKey{}, err
	}
	key := MetadataKey{Element: el}
	tail := s[closing+1:]
	if tail == "" {
		return key, nil
	}
	if tail[0] != '-' || len(tail) == 1 {
		return MetadataKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	prop := tail[1:]
	if strings.IndexByte(prop, '[') >= 0 {
		name, sub, ok := splitIndexed(prop)
		if !ok {
			return MetadataKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
		}
		if sub < 1 {
			return MetadataKey{}, fmt.Errorf("%w: %q", ErrInvalidIndex, s)
		}
		prop, key.SubIndex = name, sub
	}
	if !validProperty(prop) {
		return MetadataKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	key.Property = prop
	return key, nil
}

func validKeyword(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isWordByte(c) && c != '-' {
			return false
		}
	}
	return true
}

func validProperty(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// MetadataLine is one line of the metadata block. To emit the null literal
// where the format requires it, pass Str(NullToken) rather than Null.
type MetadataLine struct {
	Prefix string
	Key    string
	Values []Value
}

// NewKeywordLine returns a line keyed by a bare keyword.
func NewKeywordLine(keyword string, values ...Value) MetadataLine {
	return MetadataLine{Prefix: MetadataPrefix, Key: keyword, Values: values}
}

// NewElementLine returns a line keyed by el, an optional property and an
// optional property sub-index.
func NewElementLine(el IndexedElement, property string, subIndex int, values ...Value) (MetadataLine, error) {
	key, err := MetadataKey{Element: el, Property: property, SubIndex: subIndex}.Encode()
	if err != nil {
		return MetadataLine{}, err
	}
	return MetadataLine{Prefix: MetadataPrefix, Key: key, Values: values}, nil
}

// ParsedKey parses the line's key.
func (l MetadataLine) ParsedKey() (MetadataKey, error) {
	return ParseMetadataKey(l.Key)
}

// Suppressed reports whether the line carries no data and must be omitted.
func (l MetadataLine) Suppressed() bool {
	return len(l.Values) == 0 || len(l.Values) == 1 && IsNull(l.Values[0])
}

// Text returns the first value in its encoded form, or "" if there is none.
func (l MetadataLine) Text() string {
	if len(l.Values) == 0 {
		return ""
	}
	s, err := EncodeValue(l.Values[0])
	if err != nil {
		return ""
	}
	return s
}

// Parameters returns every parameter carried by the line's values, including
// parameters inside lists.
func (l MetadataLine) Parameters() []Parameter {
	var out []Parameter
	for _, v := range l.Values {
		out = appendParameters(out, v)
	}
	return out
}

func appendParameters(out []Parameter, v Value) []Parameter {
	switch v := v.(type) {
	case Param:
		out = append(out, Parameter(v))
	case List:
		for _, item := range v {
			out = appendParameters(out, item)
		}
	}
	return out
}

// EncodeMetadataLine renders l as tab-separated fields. ok is false when the
// line is suppressed.
func EncodeMetadataLine(l MetadataLine) (fields []string, ok bool, err error) {
	if l.Suppressed() {
		return nil, false, nil
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = MetadataPrefix
	}
	if _, err := ParseMetadataKey(l.Key); err != nil {
		return nil, false, err
	}
	fields = make([]string, 0, len(l.Values)+2)
	fields = append(fields, prefix, l.Key)
	for _, v := range l.Values {
		enc, err := EncodeValue(v)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", l.Key, err)
		}
		fields = append(fields, enc)
	}
	return fields, true, nil
}

// DecodeMetadataLine parses the fields of one metadata line.
func DecodeMetadataLine(fields []string) (MetadataLine, error) {
	if len(fields) == 0 || fields[0] != MetadataPrefix {
		return MetadataLine{}, fmt.Errorf("%w: not a metadata line", ErrUnexpectedLine)
	}
	if len(fields) < 2 {
		return MetadataLine{}, fmt.Errorf("%w: missing key", ErrMalformedKey)
	}
	key := strings.TrimSpace(fields[1])
	if _, err := ParseMetadataKey(key); err != nil {
		return MetadataLine{}, err
	}
	line := MetadataLine{Prefix: MetadataPrefix, Key: key, Values: make([]Value, 0, len(fields)-2)}
	for _, raw := range fields[2:] {
		line.Values = append(line.Values, DecodeMetadataValue(raw))
	}
	return line, nil
}
