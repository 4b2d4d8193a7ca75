package mztab

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/mztab/internal/metrics"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

var canonicalDocument = lines(
	"COM\tgenerated for tests",
	"MTD\tmzTab-version\t2.0.0-M",
	"MTD\tmzTab-ID\tMTBLS1",
	"MTD\tassay[1]\tfirst assay",
	"MTD\tassay[1]-ms_run_ref\tms_run[1]",
	"MTD\tsample[1]-species[1]\t[NEWT, 9606, \"Homo sapiens, human\", ]",
	"MTD\tstudy_variable[1]-assay_refs\tassay[1], assay[2]",
	"",
	"SMH\tSML_ID\tSMF_ID_REFS\tdatabase_identifier\tchemical_formula\tsmiles\tinchi\tchemical_name\turi\ttheoretical_neutral_mass\tadduct_ions\treliability\tbest_id_confidence_measure\tbest_id_confidence_value\topt_global_note\tabundance_assay[1]",
	"SML\t1\t1|2\tHMDB:HMDB0000123\tC2H5NO2\tNCC(O)=O\tnull\tGlycine\tnull\t75.032028\t[M+H]1+\t2\t[MS, MS:1002889, text-based search, ]\t0.9\tfirst\t1500000",
	"SML\t2\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tnull\tNaN",
	"",
	"SFH\tSMF_ID\tSME_ID_REFS\tSME_ID_REF_ambiguity_code\tadduct_ion\tisotopomer\texp_mass_to_charge\tcharge\tretention_time_in_seconds\tretention_time_in_seconds_start\tretention_time_in_seconds_end\tabundance_assay[1]",
	"SMF\t1\t1\tnull\t[M+H]1+\tnull\t76.0393\t1\t120.5\t118\t123\t1500000",
)

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Decode(strings.NewReader(canonicalDocument))
	require.NoError(t, err)

	assert.Equal(t, []Comment{{Text: "generated for tests"}}, doc.Comments)
	assert.Len(t, doc.Metadata, 6)
	assert.Equal(t, 3, doc.Elements.Len())
	require.Len(t, doc.Tables, 2)
	assert.Len(t, doc.Table(SectionSmallMolecule).Rows, 2)
	assert.Len(t, doc.Table(SectionSmallMoleculeFeature).Rows, 1)
	assert.Nil(t, doc.Table(SectionSmallMoleculeEvidence))

	var out bytes.Buffer
	require.NoError(t, Encode(&out, doc))
	assert.Equal(t, canonicalDocument, out.String())
}

func TestDocumentKeepsNullPlaceholder(t *testing.T) {
	t.Parallel()

	in := lines(
		"MTD\tmzTab-version\t2.0.0-M",
		"MTD\tdatabase[1]-prefix\tnull",
	)
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.Metadata, 2)
	assert.Equal(t, []Value{Str(NullToken)}, doc.Metadata[1].Values)

	var out bytes.Buffer
	require.NoError(t, Encode(&out, doc))
	assert.Equal(t, in, out.String())
}

func TestDocumentReordersColumns(t *testing.T) {
	t.Parallel()

	in := lines(
		"SFH\tabundance_assay[1]\tcharge\tSMF_ID",
		"SMF\t10.5\t2\t1",
	)
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Encode(&out, doc))
	want := lines(
		"",
		"SFH\tSMF_ID\tSME_ID_REFS\tSME_ID_REF_ambiguity_code\tadduct_ion\tisotopomer\texp_mass_to_charge\tcharge\tretention_time_in_seconds\tretention_time_in_seconds_start\tretention_time_in_seconds_end\tabundance_assay[1]",
		"SMF\t1\tnull\tnull\tnull\tnull\tnull\t2\tnull\tnull\tnull\t10.5",
	)
	assert.Equal(t, want, out.String())
}

func TestDecoderSoftFailures(t *testing.T) {
	t.Parallel()

	in := lines(
		"MTD\tmzTab-version\t2.0.0-M",
		"MTD\tassay[1]x\tbroken key",
		"XYZ\tunknown prefix",
		"SFH\tSMF_ID\tcharge\tmystery",
		"SMF\t1\tone\tkept",
	)

	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dec := NewDecoder(strings.NewReader(in))
	dec.Logger = zerolog.New(&logs)
	dec.Metrics = m

	doc, err := dec.DecodeAll()
	require.NoError(t, err)

	assert.Len(t, doc.Metadata, 1)
	table := doc.Table(SectionSmallMoleculeFeature)
	require.NotNil(t, table)
	assert.Equal(t, []string{"mystery"}, table.Header.Unknown)
	require.Len(t, table.Rows, 1)
	require.Len(t, table.Rows[0].Errors, 1)
	assert.Equal(t, "kept", table.Rows[0].Extra["mystery"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("malformed_key")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("unexpected_line")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("unknown_header")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("malformed_value")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesDecoded.WithLabelValues("MTD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesDecoded.WithLabelValues("SMF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesDecoded.WithLabelValues("other")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LinesDecoded.WithLabelValues("XYZ")))

	out := logs.String()
	assert.Contains(t, out, "unrecognised column header")
	assert.Contains(t, out, "undecodable cell")
	assert.Contains(t, out, "skipping line")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestDecoderStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		line    int
		wantErr error
	}{
		{
			name:    "malformedKey",
			input:   lines("MTD\ttitle\tx", "MTD\tassay[1]x\ty"),
			line:    2,
			wantErr: ErrMalformedKey,
		},
		{
			name:    "unknownPrefix",
			input:   lines("COM\tx", "", "XYZ\ty"),
			line:    3,
			wantErr: ErrUnexpectedLine,
		},
		{
			name:    "unknownHeader",
			input:   lines("SFH\tSMF_ID\tmystery"),
			line:    1,
			wantErr: ErrUnknownHeader,
		},
		{
			name:    "badCell",
			input:   lines("SFH\tSMF_ID", "SMF\tone"),
			line:    2,
			wantErr: ErrMalformedValue,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dec := NewDecoder(strings.NewReader(tc.input))
			dec.Strict = true
			_, err := dec.DecodeAll()
			require.ErrorIs(t, err, tc.wantErr)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.line, perr.Line)
		})
	}
}

func TestDecoderHardFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "rowBeforeHeader", input: lines("SML\t1"), wantErr: ErrUnexpectedLine},
		{name: "secondHeader", input: lines("SFH\tSMF_ID", "SFH\tSMF_ID"), wantErr: ErrUnexpectedLine},
		{name: "repeatedColumn", input: lines("SFH\tSMF_ID\tsmf_id"), wantErr: ErrDuplicateLogicalPosition},
		{name: "cellCount", input: lines("SFH\tSMF_ID", "SMF\t1\t2"), wantErr: ErrMalformedValue},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tc.input))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDecoderNext(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(strings.NewReader(lines("COM\ta\tb", "MTD\ttitle\tx", "SFH\tSMF_ID", "SMF\t4")))

	rec, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, &Comment{Text: "a\tb"}, rec)

	rec, err = dec.Next()
	require.NoError(t, err)
	require.IsType(t, &MetadataLine{}, rec)

	rec, err = dec.Next()
	require.NoError(t, err)
	require.IsType(t, &HeaderRow{}, rec)
	assert.Same(t, rec, dec.Header(SectionSmallMoleculeFeature))

	rec, err = dec.Next()
	require.NoError(t, err)
	row, ok := rec.(*Row)
	require.True(t, ok)
	assert.Equal(t, Int(4), row.Get(mustColumn(t, dec.Header(SectionSmallMoleculeFeature).Factory, "SMF_ID")))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDocumentBuild(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.Comments = append(doc.Comments, Comment{Text: "built\tin code"})
	doc.Metadata = append(doc.Metadata,
		NewKeywordLine("mzTab-version", Str("2.0.0-M")),
		NewKeywordLine("title"),
	)

	f := newFactory(t, SectionSmallMoleculeFeature)
	_, err := f.AddAbundanceAssayColumn(assay(1))
	require.NoError(t, err)
	table, err := doc.AddTable(f)
	require.NoError(t, err)
	_, err = doc.AddTable(f)
	assert.ErrorIs(t, err, ErrUnexpectedLine)

	r := NewRow(SectionSmallMoleculeFeature)
	r.Set(mustColumn(t, f, "SMF_ID"), Int(1))
	r.Set(mustColumn(t, f, "isotopomer"), Param(NewParameter("MS", "MS:1002957", "isotopic ion MS peak", "")))
	require.NoError(t, table.AddRow(r))
	assert.ErrorIs(t, table.AddRow(NewRow(SectionSmallMolecule)), ErrUnexpectedLine)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	var out bytes.Buffer
	enc := NewEncoder(&out)
	enc.Metrics = m
	enc.Writer().UseCRLF = true
	require.NoError(t, enc.Encode(doc))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "COM\tbuilt\tin code\r\nMTD\tmzTab-version\t2.0.0-M\r\n\r\nSFH\tSMF_ID"), text)
	assert.NotContains(t, text, "title")
	assert.Contains(t, text, "SMF\t1\tnull\tnull\tnull\t[MS, MS:1002957, isotopic ion MS peak, ]\t")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesEncoded.WithLabelValues("MTD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesEncoded.WithLabelValues("SMF")))

	back, err := Decode(strings.NewReader(text))
	require.NoError(t, err)
	assertRowValues(t, r.Values, back.Table(SectionSmallMoleculeFeature).Rows[0])
}

func TestWalkParameters(t *testing.T) {
	t.Parallel()

	doc, err := Decode(strings.NewReader(canonicalDocument))
	require.NoError(t, err)

	type visit struct {
		path string
		name string
	}
	var got []visit
	doc.WalkParameters(func(path string, p Parameter) {
		got = append(got, visit{path: path, name: p.Name})
	})

	assert.Equal(t, []visit{
		{path: "sample[1]-species[1]", name: "Homo sapiens, human"},
		{path: "SML[1]/best_id_confidence_measure", name: "text-based search"},
	}, got)

	assert.Len(t, doc.Lines("assay[1]-ms_run_ref"), 1)
	assert.Empty(t, doc.Lines("assay[2]"))
}
