package mztab

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ElementKind identifies the type of an indexed metadata element.
type ElementKind int

const (
	_ ElementKind = iota // zero value is the invalid kind

	KindContact
	KindSample
	KindSampleProcessing
	KindInstrument
	KindSoftware
	KindPublication
	KindURI
	KindExternalStudyURI
	KindMsRun
	KindAssay
	KindStudyVariable
	KindCV
	KindDatabase
	KindDerivatizationAgent
	KindCustom
	KindIDConfidenceMeasure

	// kindTotal is one past the last valid kind.
	kindTotal
)

var kindNames = [kindTotal]string{
	KindContact:             "contact",
	KindSample:              "sample",
	KindSampleProcessing:    "sample_processing",
	KindInstrument:          "instrument",
	KindSoftware:            "software",
	KindPublication:         "publication",
	KindURI:                 "uri",
	KindExternalStudyURI:    "external_study_uri",
	KindMsRun:               "ms_run",
	KindAssay:               "assay",
	KindStudyVariable:       "study_variable",
	KindCV:                  "cv",
	KindDatabase:            "database",
	KindDerivatizationAgent: "derivatization_agent",
	KindCustom:              "custom",
	KindIDConfidenceMeasure: "id_confidence_measure",
}

var kindsByName = func() map[string]ElementKind {
	m := make(map[string]ElementKind, len(kindNames))
	for k := KindContact; k < kindTotal; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// Valid reports whether k is one of the declared kinds.
func (k ElementKind) Valid() bool {
	return k > 0 && k < kindTotal
}

// String returns the canonical lower-snake-case name used in references.
func (k ElementKind) String() string {
	if !k.Valid() {
		return "ElementKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ElementKindByName resolves a canonical kind name. The match is exact and case-sensitive.
func ElementKindByName(name string) (ElementKind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownElementType, name)
	}
	return k, nil
}

// IndexedElement is the (kind, 1-based id) identity of a metadata element.
// An ID of zero means the element has not been assigned an id yet.
type IndexedElement struct {
	Kind ElementKind
	ID   int
}

// NewIndexedElement returns an element with a validated id.
func NewIndexedElement(kind ElementKind, id int) (IndexedElement, error) {
	if !kind.Valid() {
		return IndexedElement{}, fmt.Errorf("%w: %v", ErrUnknownElementType, kind)
	}
	if id < 1 {
		return IndexedElement{}, fmt.Errorf("%w: %s[%d]", ErrInvalidIndex, kind, id)
	}
	return IndexedElement{Kind: kind, ID: id}, nil
}

// Reference returns the "{type}[{id}]" form used to cross-reference the element.
func (e IndexedElement) Reference() (string, error) {
	if !e.Kind.Valid() {
		return "", fmt.Errorf("%w: %v", ErrUnknownElementType, e.Kind)
	}
	if e.ID == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingIdentity, e.Kind)
	}
	if e.ID < 0 {
		return "", fmt.Errorf("%w: %s[%d]", ErrInvalidIndex, e.Kind, e.ID)
	}
	return kindNames[e.Kind] + "[" + strconv.Itoa(e.ID) + "]", nil
}

// String returns the reference form, or a diagnostic form for incomplete elements.
func (e IndexedElement) String() string {
	ref, err := e.Reference()
	if err != nil {
		return e.Kind.String() + "[?]"
	}
	return ref
}

// ParseReference parses "{type}[{id}]" back into an element.
func ParseReference(s string) (IndexedElement, error) {
	name, id, ok := splitIndexed(s)
	if !ok {
		return IndexedElement{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	kind, err := ElementKindByName(name)
	if err != nil {
		return IndexedElement{}, err
	}
	return NewIndexedElement(kind, id)
}

// splitIndexed splits "name[id]" into its parts. The id must be a decimal integer.
func splitIndexed(s string) (name string, id int, ok bool) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, false
	}
	digits := s[open+1 : len(s)-1]
	if digits == "" {
		return "", 0, false
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if (c < '0' || c > '9') && !(i == 0 && c == '-') {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return s[:open], n, true
}

// CompareElements orders elements by kind and then id, with absent ids first.
func CompareElements(a, b IndexedElement) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ElementRegistry records the elements declared in one metadata block.
// It is not safe for concurrent mutation.
type ElementRegistry struct {
	byKind map[ElementKind]map[int]IndexedElement
}

// NewElementRegistry returns an empty registry.
func NewElementRegistry() *ElementRegistry {
	return &ElementRegistry{byKind: make(map[ElementKind]map[int]IndexedElement)}
}

// Declare registers (kind, id). A second declaration of the same pair fails.
func (r *ElementRegistry) Declare(kind ElementKind, id int) (IndexedElement, error) {
	el, err := NewIndexedElement(kind, id)
	if err != nil {
		return IndexedElement{}, err
	}
	ids := r.byKind[kind]
	if ids == nil {
		ids = make(map[int]IndexedElement)
		r.byKind[kind] = ids
	}
	if _, dup := ids[id]; dup {
		return IndexedElement{}, fmt.Errorf("%w: %s", ErrDuplicateElement, el)
	}
	ids[id] = el
	return el, nil
}

// Ensure declares (kind, id) unless it is already present.
func (r *ElementRegistry) Ensure(kind ElementKind, id int) (IndexedElement, error) {
	if el, ok := r.byKind[kind][id]; ok {
		return el, nil
	}
	return r.Declare(kind, id)
}

// Lookup resolves a reference string against the declared elements.
func (r *ElementRegistry) Lookup(ref string) (IndexedElement, bool) {
	el, err := ParseReference(ref)
	if err != nil {
		return IndexedElement{}, false
	}
	got, ok := r.byKind[el.Kind][el.ID]
	return got, ok
}

// Elements returns the declared elements of one kind in ascending id order.
func (r *ElementRegistry) Elements(kind ElementKind) []IndexedElement {
	ids := r.byKind[kind]
	out := make([]IndexedElement, 0, len(ids))
	for _, el := range ids {
		out = append(out, el)
	}
	slices.SortFunc(out, CompareElements)
	return out
}

// Len returns the number of declared elements across all kinds.
func (r *ElementRegistry) Len() int {
	n := 0
	for _, ids := range r.byKind {
		n += len(ids)
	}
	return n
}
