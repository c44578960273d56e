package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmpty indicates the input file contained no rows at all.
var ErrEmpty = errors.New("input table is empty")

// sniffSampleSize bounds how much of the file is read for dialect detection.
const sniffSampleSize = 2048

// Table holds a fully read delimited file plus the dialect it was read with.
type Table struct {
	Header []string
	Rows   [][]string
	Delim  rune
}

// SniffDelimiter picks the most frequent candidate delimiter (comma, tab,
// semicolon) on the first line of sample, ignoring characters inside double
// quotes. Ties resolve in candidate order; no hits resolve to fallback.
func SniffDelimiter(sample []byte, fallback rune) rune {
	counts := map[rune]int{',': 0, '\t': 0, ';': 0}
	inQuotes := false
	for _, b := range sample {
		c := rune(b)
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == '\n' && !inQuotes:
			goto done
		case !inQuotes:
			if _, ok := counts[c]; ok {
				counts[c]++
			}
		}
	}
done:
	best := fallback
	bestCount := 0
	for _, c := range []rune{',', '\t', ';'} {
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return best
}

// Load reads a delimited file in full. If delim is 0 the dialect is detected
// from the leading bytes. Returns ErrEmpty when the file has no rows.
func Load(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	if delim == 0 {
		sample := make([]byte, sniffSampleSize)
		n, err := f.Read(sample)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("sample table: %w", err)
		}
		delim = SniffDelimiter(sample[:n], ',')
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind table: %w", err)
		}
	}

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Header: records[0], Rows: records[1:], Delim: delim}, nil
}

// Parse reads delimited content from memory, sniffing the dialect when delim
// is 0. Used for downloaded coding files, which default to tab-separated.
func Parse(data []byte, delim rune, fallback rune) ([][]string, error) {
	if delim == 0 {
		sample := data
		if len(sample) > sniffSampleSize {
			sample = sample[:sniffSampleSize]
		}
		delim = SniffDelimiter(sample, fallback)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// Writer streams rows to an output in a fixed dialect.
type Writer struct {
	w *csv.Writer
}

// NewWriter wraps w with the given delimiter.
func NewWriter(w io.Writer, delim rune) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	return &Writer{w: cw}
}

// WriteRow writes one record.
func (w *Writer) WriteRow(row []string) error {
	return w.w.Write(row)
}

// Flush commits buffered rows and reports any deferred write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
