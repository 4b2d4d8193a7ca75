package mztab

import (
	"fmt"
	"strings"
)

const (
	paramSeparator = ','
	paramQuote     = '"'
	paramFieldSep  = ", "
)

// Parameter is a controlled-vocabulary annotated value. Empty strings mark
// absent fields; Name is required.
type Parameter struct {
	CVLabel     string
	CVAccession string
	Name        string
	Value       string
}

// NewParameter returns a parameter with all four fields set.
func NewParameter(cvLabel, cvAccession, name, value string) Parameter {
	return Parameter{CVLabel: cvLabel, CVAccession: cvAccession, Name: name, Value: value}
}

// UserParameter returns a parameter without a controlled vocabulary.
func UserParameter(name, value string) Parameter {
	return Parameter{Name: name, Value: value}
}

// IsZero reports whether no field is set.
func (p Parameter) IsZero() bool {
	return p == Parameter{}
}

// String renders p without validation. Use EncodeParameter for output that
// must decode again.
func (p Parameter) String() string {
	var b strings.Builder
	writeParameter(&b, p)
	return b.String()
}

// EncodeParameter renders p as "[label, accession, name, value]". Name and
// value holding a comma are wrapped in double quotes. Literal double quotes
// and leading or trailing whitespace cannot be represented and are rejected.
func EncodeParameter(p Parameter) (string, error) {
	if err := checkEncodable(p); err != nil {
		return "", err
	}
	var b strings.Builder
	writeParameter(&b, p)
	return b.String(), nil
}

func checkEncodable(p Parameter) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrMalformedParameter)
	}
	if strings.ContainsRune(p.CVLabel, paramSeparator) || strings.ContainsRune(p.CVAccession, paramSeparator) {
		return fmt.Errorf("%w: separator in cv label or accession of %q", ErrMalformedParameter, p.Name)
	}
	for _, field := range [...]string{p.CVLabel, p.CVAccession, p.Name, p.Value} {
		if strings.ContainsRune(field, paramQuote) {
			// nested quotes are not part of the format
			return fmt.Errorf("%w: double quote in %q", ErrMalformedParameter, field)
		}
		if strings.TrimSpace(field) != field {
			// the decoder trims every field
			return fmt.Errorf("%w: surrounding whitespace in %q", ErrMalformedParameter, field)
		}
	}
	return nil
}

func writeParameter(b *strings.Builder, p Parameter) {
	b.WriteByte('[')
	b.WriteString(p.CVLabel)
	b.WriteString(paramFieldSep)
	b.WriteString(p.CVAccession)
	b.WriteString(paramFieldSep)
	writeQuotedIfNeeded(b, p.Name)
	b.WriteString(paramFieldSep)
	writeQuotedIfNeeded(b, p.Value)
	b.WriteByte(']')
}

func writeQuotedIfNeeded(b *strings.Builder, field string) {
	if !strings.ContainsRune(field, paramSeparator) {
		b.WriteString(field)
		return
	}
	b.WriteByte(paramQuote)
	b.WriteString(field)
	b.WriteByte(paramQuote)
}

// DecodeParameter parses the bracket form produced by EncodeParameter.
func DecodeParameter(s string) (Parameter, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Parameter{}, fmt.Errorf("%w: missing brackets in %q", ErrMalformedParameter, s)
	}
	tokens, ok := splitParameterFields(s[1 : len(s)-1])
	if !ok || len(tokens) != 4 {
		return Parameter{}, fmt.Errorf("%w: want 4 fields in %q", ErrMalformedParameter, s)
	}
	p := Parameter{
		CVLabel:     strings.TrimSpace(tokens[0]),
		CVAccession: strings.TrimSpace(tokens[1]),
		Name:        unquote(strings.TrimSpace(tokens[2])),
		Value:       unquote(strings.TrimSpace(tokens[3])),
	}
	if strings.TrimSpace(p.Name) == "" {
		return Parameter{}, fmt.Errorf("%w: empty name in %q", ErrMalformedParameter, s)
	}
	return p, nil
}

// splitParameterFields splits on commas outside double quotes. It fails on an
// unbalanced quote.
func splitParameterFields(s string) ([]string, bool) {
	tokens := make([]string, 0, 4)
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case paramQuote:
			inQuotes = !inQuotes
		case paramSeparator:
			if !inQuotes {
				tokens = append(tokens, s[start:i])
				start = i + 1
			}
		}
	}
	if inQuotes {
		return nil, false
	}
	return append(tokens, s[start:]), true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == paramQuote && s[len(s)-1] == paramQuote {
		return s[1 : len(s)-1]
	}
	return s
}

// EncodeParameters joins encoded parameters with the list separator.
// An empty list encodes as the null sentinel.
func EncodeParameters(params []Parameter) (string, error) {
	if len(params) == 0 {
		return NullToken, nil
	}
	parts := make([]string, len(params))
	for i, p := range params {
		enc, err := EncodeParameter(p)
		if err != nil {
			return "", err
		}
		parts[i] = enc
	}
	return strings.Join(parts, string(ListSeparator)), nil
}

// DecodeParameters parses a bar separated parameter list. The null sentinel
// decodes to an empty list. Bars inside brackets or quotes do not split.
func DecodeParameters(s string) ([]Parameter, error) {
	s = strings.TrimSpace(s)
	if s == "" || isNullToken(s) {
		return []Parameter{}, nil
	}
	var out []Parameter
	depth := 0
	inQuotes := false
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case paramQuote:
				inQuotes = !inQuotes
				continue
			case '[':
				if !inQuotes {
					depth++
				}
				continue
			case ']':
				if !inQuotes && depth > 0 {
					depth--
				}
				continue
			case ListSeparator:
				if inQuotes || depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		token := strings.TrimSpace(s[start:i])
		start = i + 1
		if token == "" {
			continue
		}
		p, err := DecodeParameter(token)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if out == nil {
		out = []Parameter{}
	}
	return out, nil
}
