package mztab

import (
	"bytes"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

// Reader splits a stream into physical lines of tab-separated fields. The
// format has no field quoting: a field ends at the next delimiter or line
// break. Blank lines are skipped.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is '\t'.
	Comma byte
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	record      []string
	dataBuf     []byte
	fieldBounds []int
	finished    bool
	line        int
	recordLine  int
}

// NewReader creates a Reader that consumes data from r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("mztab: reader source cannot be nil")
	}

	return &Reader{
		src:         r,
		Comma:       '\t',
		buf:         make([]byte, defaultBufferSize),
		record:      make([]string, 0, 32),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 64),
		line:        1,
	}
}

// Line returns the 1-based line number of the record returned by the last Read.
func (r *Reader) Line() int {
	return r.recordLine
}

// Read returns the fields of the next non-blank line. The returned slice may
// share storage with later calls when ReuseRecord is set; io.EOF signals that
// no more lines remain.
func (r *Reader) Read() (dst []string, err error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}

	for {
		if r.finished {
			return nil, io.EOF
		}
		if r.ReuseRecord {
			r.record = r.record[:0]
		} else {
			r.record = nil
		}
		r.dataBuf = r.dataBuf[:0]
		r.fieldBounds = r.fieldBounds[:0]
		r.recordLine = r.line

		done, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if !done {
			r.finished = true
			return nil, io.EOF
		}
		// A blank line yields a single empty field.
		if len(r.dataBuf) == 0 && len(r.fieldBounds) == 2 {
			continue
		}
		return r.buildRecord(), nil
	}
}

// ReadAll exhausts the reader, collecting records until io.EOF.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// readRecord fills fieldBounds with the next line. It reports false when the
// stream ended before any byte of a new line.
func (r *Reader) readRecord() (bool, error) {
	fieldStart := 0
	sawData := false

	for {
		if r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				err := r.bufErr
				r.bufErr = nil
				if err != io.EOF {
					return false, err
				}
				r.finished = true
				// Flush a trailing line that ended without a newline.
				if sawData {
					r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
					return true, nil
				}
				return false, nil
			}

			// Pull the next chunk from the source.
			n, err := r.src.Read(r.buf)
			r.bufPos = 0
			r.bufLen = n
			if err != nil {
				r.bufErr = err
			}
			continue
		}

		sawData = true
		recordDone, err := r.consumePlain(&fieldStart)
		if err != nil {
			return false, err
		}
		if recordDone {
			return true, nil
		}
	}
}

// buildRecord maps the accumulated fieldBounds onto the data buffer, respecting ReuseRecord.
func (r *Reader) buildRecord() []string {
	fieldCount := len(r.fieldBounds) / 2

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) == 0 {
			recordStr = ""
		} else {
			// Zero-copy string construction so fields can share a single backing buffer.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		start := r.fieldBounds[2*i]
		end := r.fieldBounds[2*i+1]
		r.record[i] = recordStr[start:end]
	}
	return r.record
}

// consumePlain consumes buffered bytes up to the end of the current line,
// updating *fieldStart. It reports whether a line terminator was
// seen.
func (r *Reader) consumePlain(fieldStart *int) (bool, error) {
	comma := r.Comma
	if comma == 0 {
		comma = '\t'
	}

	for {
		if r.bufPos >= r.bufLen {
			return false, nil
		}

		// Locate the closest delimiter or line terminator within the buffered bytes.
		data := r.buf[r.bufPos:r.bufLen]
		idxComma := bytes.IndexByte(data, comma)
		idxNewline := bytes.IndexByte(data, '\n')
		idxCR := bytes.IndexByte(data, '\r')

		next := len(data)
		delim := byte(0)

		if idxComma >= 0 && idxComma < next {
			next = idxComma
			delim = comma
		}
		if idxNewline >= 0 && idxNewline < next {
			next = idxNewline
			delim = '\n'
		}
		if idxCR >= 0 && idxCR < next {
			next = idxCR
			delim = '\r'
		}

		if next > 0 {
			r.dataBuf = append(r.dataBuf, data[:next]...)
			r.bufPos += next
		}

		if delim == 0 {
			return false, nil
		}

		r.bufPos++
		switch delim {
		case comma:
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			*fieldStart = len(r.dataBuf)
		case '\n':
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			r.line++
			return true, nil
		case '\r':
			// Support CRLF by peeking ahead for '\n' and consuming it together.
			nextByte, err := r.peekByte()
			if err == nil && nextByte == '\n' {
				r.bufPos++
			} else if err != nil && err != io.EOF {
				return false, err
			}
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			r.line++
			return true, nil
		}
	}
}

// peekByte returns the next buffered byte (refilling from src as needed) and propagates any read error.
func (r *Reader) peekByte() (byte, error) {
	for {
		if r.bufPos < r.bufLen {
			return r.buf[r.bufPos], nil
		}
		if r.bufErr != nil {
			return 0, r.bufErr
		}

		n, err := r.src.Read(r.buf)
		if n == 0 && err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		r.bufPos = 0
		r.bufLen = n
		r.bufErr = err
	}
}
