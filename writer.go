package mztab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	errNilWriter      = errors.New("mztab: writer is nil")
	errWriterNoTarget = errors.New("mztab: writer destination cannot be nil")
)

// Writer emits tab-separated lines to a caller-owned stream. Fields are
// written verbatim; a field that holds the delimiter or a line break cannot be
// represented and fails with ErrIllegalCharacter.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is '\t'.
	Comma byte
	// UseCRLF writes lines terminated with \r\n when set.
	UseCRLF bool

	err error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriterSize(w, defaultBufferSize),
		Comma: '\t',
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single line. Nothing is written when a field is rejected.
func (w *Writer) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.Comma
	if comma == 0 {
		comma = '\t'
	}

	for i := range record {
		if !fieldWritable(record[i], comma) {
			return fmt.Errorf("%w: field %d %q", ErrIllegalCharacter, i+1, record[i])
		}
	}

	for i := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				w.err = err
				return err
			}
		}
		if _, err := w.dst.WriteString(record[i]); err != nil {
			w.err = err
			return err
		}
	}

	return w.endLine()
}

// WriteBlank emits an empty line, used between sections.
func (w *Writer) WriteBlank() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	return w.endLine()
}

func (w *Writer) endLine() error {
	var err error
	if w.UseCRLF {
		_, err = w.dst.Write([]byte{'\r', '\n'})
	} else {
		err = w.dst.WriteByte('\n')
	}
	if err != nil {
		w.err = err
	}
	return err
}

// WriteAll writes multiple lines, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first I/O error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func fieldWritable(field string, comma byte) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case comma, '\n', '\r':
			return false
		}
	}
	return true
}
