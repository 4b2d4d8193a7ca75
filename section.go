package mztab

import (
	"strconv"
	"strings"
)

// Line prefixes that are not table sections.
const (
	MetadataPrefix = "MTD"
	CommentPrefix  = "COM"
)

// Section is one record table of the format.
type Section int

const (
	_ Section = iota

	SectionSmallMolecule
	SectionSmallMoleculeFeature
	SectionSmallMoleculeEvidence

	sectionTotal
)

// Abundance column names.
const (
	AbundanceAssay                  = abundancePrefix + "assay"
	AbundanceStudyVariable          = abundancePrefix + "study_variable"
	AbundanceVariationStudyVariable = abundancePrefix + "variation_study_variable"
)

// Orders reserved for the abundance families. Optional slots are allocated
// between the last stable order and firstAbundanceOrder.
const (
	orderAbundanceAssay = 97 + iota
	orderAbundanceStudyVariable
	orderAbundanceVariationStudyVariable

	firstAbundanceOrder = orderAbundanceAssay
)

// stableTemplate is one entry of a section's stable column schema. Family
// entries are not instantiated up front; they repeat as name[id].
type stableTemplate struct {
	name     string
	dataType ScalarType
	family   bool
}

type sectionDef struct {
	name         string
	headerPrefix string
	rowPrefix    string
	columns      []stableTemplate
	abundance    []string
}

var sectionDefs = [sectionTotal]sectionDef{
	SectionSmallMolecule: {
		name:         "Small Molecule",
		headerPrefix: "SMH",
		rowPrefix:    "SML",
		columns: []stableTemplate{
			{name: "SML_ID", dataType: TypeInteger},
			{name: "SMF_ID_REFS", dataType: TypeIntegerList},
			{name: "database_identifier", dataType: TypeStringList},
			{name: "chemical_formula", dataType: TypeStringList},
			{name: "smiles", dataType: TypeStringList},
			{name: "inchi", dataType: TypeStringList},
			{name: "chemical_name", dataType: TypeStringList},
			{name: "uri", dataType: TypeStringList},
			{name: "theoretical_neutral_mass", dataType: TypeDoubleList},
			{name: "adduct_ions", dataType: TypeStringList},
			{name: "reliability", dataType: TypeString},
			{name: "best_id_confidence_measure", dataType: TypeParameter},
			{name: "best_id_confidence_value", dataType: TypeDouble},
		},
		abundance: []string{AbundanceAssay, AbundanceStudyVariable, AbundanceVariationStudyVariable},
	},
	SectionSmallMoleculeFeature: {
		name:         "Small Molecule Feature",
		headerPrefix: "SFH",
		rowPrefix:    "SMF",
		columns: []stableTemplate{
			{name: "SMF_ID", dataType: TypeInteger},
			{name: "SME_ID_REFS", dataType: TypeIntegerList},
			{name: "SME_ID_REF_ambiguity_code", dataType: TypeInteger},
			{name: "adduct_ion", dataType: TypeString},
			{name: "isotopomer", dataType: TypeParameter},
			{name: "exp_mass_to_charge", dataType: TypeDouble},
			{name: "charge", dataType: TypeInteger},
			{name: "retention_time_in_seconds", dataType: TypeDouble},
			{name: "retention_time_in_seconds_start", dataType: TypeDouble},
			{name: "retention_time_in_seconds_end", dataType: TypeDouble},
		},
		abundance: []string{AbundanceAssay},
	},
	SectionSmallMoleculeEvidence: {
		name:         "Small Molecule Evidence",
		headerPrefix: "SEH",
		rowPrefix:    "SME",
		columns: []stableTemplate{
			{name: "SME_ID", dataType: TypeInteger},
			{name: "evidence_input_id", dataType: TypeString},
			{name: "database_identifier", dataType: TypeString},
			{name: "chemical_formula", dataType: TypeString},
			{name: "smiles", dataType: TypeString},
			{name: "inchi", dataType: TypeString},
			{name: "chemical_name", dataType: TypeString},
			{name: "uri", dataType: TypeString},
			{name: "derivatized_form", dataType: TypeParameter},
			{name: "adduct_ion", dataType: TypeString},
			{name: "exp_mass_to_charge", dataType: TypeDouble},
			{name: "charge", dataType: TypeInteger},
			{name: "theoretical_mass_to_charge", dataType: TypeDouble},
			{name: "spectra_ref", dataType: TypeStringList},
			{name: "identification_method", dataType: TypeParameter},
			{name: "ms_level", dataType: TypeParameter},
			{name: "id_confidence_measure", dataType: TypeDouble, family: true},
			{name: "rank", dataType: TypeInteger},
		},
	},
}

// Sections lists the table sections in document order.
func Sections() []Section {
	return []Section{SectionSmallMolecule, SectionSmallMoleculeFeature, SectionSmallMoleculeEvidence}
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool { return s > 0 && s < sectionTotal }

func (s Section) String() string {
	if !s.Valid() {
		return "Section(" + strconv.Itoa(int(s)) + ")"
	}
	return sectionDefs[s].name
}

// HeaderPrefix returns the prefix of the section's header row, e.g. "SMH".
func (s Section) HeaderPrefix() string { return sectionDefs[s].headerPrefix }

// RowPrefix returns the prefix of the section's data rows, e.g. "SML".
func (s Section) RowPrefix() string { return sectionDefs[s].rowPrefix }

// SectionByHeaderPrefix resolves a header row prefix.
func SectionByHeaderPrefix(prefix string) (Section, bool) {
	for _, s := range Sections() {
		if sectionDefs[s].headerPrefix == prefix {
			return s, true
		}
	}
	return 0, false
}

// SectionByRowPrefix resolves a data row prefix.
func SectionByRowPrefix(prefix string) (Section, bool) {
	for _, s := range Sections() {
		if sectionDefs[s].rowPrefix == prefix {
			return s, true
		}
	}
	return 0, false
}

func (s Section) allowsAbundance(name string) bool {
	for _, a := range sectionDefs[s].abundance {
		if a == name {
			return true
		}
	}
	return false
}

// stableTemplateByName returns the template and its 1-based order.
func (s Section) stableTemplateByName(name string) (stableTemplate, int, bool) {
	for i, t := range sectionDefs[s].columns {
		if strings.EqualFold(t.name, name) {
			return t, i + 1, true
		}
	}
	return stableTemplate{}, 0, false
}
