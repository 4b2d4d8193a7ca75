package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/mztab"
)

const sampleFile = "MTD\tmzTab-version\t2.0.0-M\n" +
	"MTD\tassay[1]\tfirst\n" +
	"\n" +
	"SFH\tcharge\tSMF_ID\tabundance_assay[1]\n" +
	"SMF\t2\t1\t10.5\n"

const canonicalSample = "MTD\tmzTab-version\t2.0.0-M\n" +
	"MTD\tassay[1]\tfirst\n" +
	"\n" +
	"SFH\tSMF_ID\tSME_ID_REFS\tSME_ID_REF_ambiguity_code\tadduct_ion\tisotopomer\texp_mass_to_charge\tcharge\tretention_time_in_seconds\tretention_time_in_seconds_start\tretention_time_in_seconds_end\tabundance_assay[1]\n" +
	"SMF\t1\tnull\tnull\tnull\tnull\tnull\t2\tnull\tnull\tnull\t10.5\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mztab dev\n", out)
}

func TestCheckClean(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "clean.mztab", sampleFile)
	out, _, err := run(t, "check", path)
	require.NoError(t, err)

	assert.Contains(t, out, "2 metadata lines, 1 elements")
	assert.Contains(t, out, "Small Molecule Feature: 3 columns, 1 rows, 0 unknown headers, 0 bad cells")
	assert.Contains(t, out, "mztab_lines_decoded_total{MTD} 2")
	assert.Contains(t, out, "mztab_lines_decoded_total{SMF} 1")
}

func TestCheckReportsProblems(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dirty.mztab", "SFH\tSMF_ID\tmystery\nSMF\tone\tx\n")
	out, logs, err := run(t, "check", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems found")
	assert.Contains(t, out, "1 unknown headers, 1 bad cells")
	assert.Contains(t, out, "mztab_decode_failures_total{unknown_header} 1")
	assert.Contains(t, logs, "unrecognised column header")
}

func TestCheckStrict(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dirty.mztab", "SFH\tSMF_ID\tmystery\n")
	_, _, err := run(t, "check", "--strict", path)
	require.ErrorIs(t, err, mztab.ErrUnknownHeader)
}

func TestCheckMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "check", filepath.Join(t.TempDir(), "absent.mztab"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatCanonicalOrder(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "in.mztab", sampleFile)
	out, _, err := run(t, "format", path)
	require.NoError(t, err)
	assert.Equal(t, canonicalSample, out)
}

func TestFormatToFileWithCRLF(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "in.mztab", sampleFile)
	dst := filepath.Join(t.TempDir(), "out.mztab")
	out, _, err := run(t, "format", "--crlf", "-o", dst, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(canonicalSample, "\n", "\r\n"), string(got))
}

func TestFormatRejectsBadCells(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.mztab", "SFH\tSMF_ID\nSMF\tone\n")
	_, _, err := run(t, "format", path)
	require.ErrorIs(t, err, mztab.ErrMalformedValue)
}

type closeFailWriter struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (c *closeFailWriter) Close() error {
	c.closed = true
	return c.closeErr
}

func TestWriteAndClose(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("disk full")
	wc := &closeFailWriter{closeErr: closeErr}
	err := writeAndClose(wc, func(w io.Writer) error {
		_, err := io.WriteString(w, "MTD\ttitle\tx\n")
		return err
	})
	require.ErrorIs(t, err, closeErr)
	assert.True(t, wc.closed)
	assert.Equal(t, "MTD\ttitle\tx\n", wc.String())

	writeErr := errors.New("encode failed")
	wc = &closeFailWriter{closeErr: closeErr}
	err = writeAndClose(wc, func(io.Writer) error { return writeErr })
	require.ErrorIs(t, err, writeErr)
	assert.True(t, wc.closed)

	wc = &closeFailWriter{}
	require.NoError(t, writeAndClose(wc, func(io.Writer) error { return nil }))
	assert.True(t, wc.closed)
}

func TestFormatDropsUnknownColumns(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "extra.mztab", "SFH\tSMF_ID\tmystery\nSMF\t1\tx\n")
	out, logs, err := run(t, "format", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "mystery")
	assert.Contains(t, logs, "dropping unrecognised columns")
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "mztab.yaml", "crlf: true\nlog_level: error\n")
	path := writeFile(t, "in.mztab", sampleFile)
	out, _, err := run(t, "format", "--config", cfg, path)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(canonicalSample, "\n", "\r\n"), out)

	_, _, err = run(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	v, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", v.GetString(cfgKeyLogLevel))
	assert.False(t, v.GetBool(cfgKeyStrict))
	assert.False(t, v.GetBool(cfgKeyCRLF))
}
