package mztab

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"MTD", "mzTab-version", "2.0.0-M"}},
			want:    "MTD\tmzTab-version\t2.0.0-M\n",
		},
		{
			name: "multipleRecords",
			records: [][]string{
				{"SMH", "SML_ID"},
				{"SML", "1"},
			},
			want: "SMH\tSML_ID\nSML\t1\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    "\tb\n",
		},
		{
			name:    "commaAndQuotesVerbatim",
			records: [][]string{{"MTD", "sample[1]-species[1]", "[NEWT, 9606, \"Homo sapiens, human\", ]"}},
			want:    "MTD\tsample[1]-species[1]\t[NEWT, 9606, \"Homo sapiens, human\", ]\n",
		},
		{
			name: "customComma",
			records: [][]string{
				{"a\tb", "c"},
			},
			config: func(w *Writer) {
				w.Comma = ';'
			},
			want: "a\tb;c\n",
		},
		{
			name: "useCRLF",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *Writer) {
				w.UseCRLF = true
			},
			want: "a\r\nb\r\n",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				if err := w.Write(rec); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestWriterIllegalCharacter(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"a\tb", "multi\nline", "cr\rhere"} {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		err := w.Write([]string{"COM", field})
		if !errors.Is(err, ErrIllegalCharacter) {
			t.Fatalf("Write(%q) error = %v, want ErrIllegalCharacter", field, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if buf.Len() != 0 {
			t.Fatalf("Write(%q) emitted %q, want nothing", field, buf.String())
		}
		// the failure is not sticky
		if err := w.Write([]string{"COM", "ok"}); err != nil {
			t.Fatalf("Write() after rejected field error = %v", err)
		}
	}
}

func TestWriterWriteBlank(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write([]string{"MTD", "title", "x"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.WriteBlank(); err != nil {
		t.Fatalf("WriteBlank() error = %v", err)
	}
	if err := w.Write([]string{"SMH", "SML_ID"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "MTD\ttitle\tx\r\n\r\nSMH\tSML_ID\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	records := [][]string{
		{"alpha", "beta"},
		{"gamma", "delta"},
	}

	if err := w.WriteAll(records); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "alpha\tbeta\ngamma\tdelta\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestWriterReset(t *testing.T) {
	t.Parallel()

	var buf1 bytes.Buffer
	var buf2 bytes.Buffer

	var w Writer
	w.Reset(&buf1)

	if err := w.Write([]string{"a", "b"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf1.String(); got != "a\tb\n" {
		t.Fatalf("unexpected buf1 contents %q", got)
	}

	w.Comma = ';'
	w.UseCRLF = true
	w.Reset(&buf2)
	if err := w.Write([]string{"x", "y"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf2.String(); got != "x;y\r\n" {
		t.Fatalf("unexpected buf2 contents %q", got)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&flushFailWriter{fail: exp})

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Write([]string{"b"}); !errors.Is(err, exp) {
		t.Fatalf("Write() should return stored error %v, got %v", exp, err)
	}
	if err := w.WriteBlank(); !errors.Is(err, exp) {
		t.Fatalf("WriteBlank() should return stored error %v, got %v", exp, err)
	}
}

func TestWriterErrorMethod(t *testing.T) {
	t.Parallel()

	w := NewWriter(&strings.Builder{})
	if err := w.Error(); err != nil {
		t.Fatalf("expected nil error from fresh writer, got %v", err)
	}

	exp := errors.New("flush failed")
	w.Reset(&flushFailWriter{fail: exp})
	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Error(); !errors.Is(err, exp) {
		t.Fatalf("Error() should return %v, got %v", exp, err)
	}

	var nilWriter *Writer
	if err := nilWriter.Error(); err == nil {
		t.Fatalf("nil writer should report an error")
	}
}
