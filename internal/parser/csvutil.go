package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// headerTable indexes a CSV header row by lowercased column name.
type headerTable struct {
	cols  []string
	index map[string]int
}

func newHeaderTable(rec []string) *headerTable {
	t := &headerTable{
		cols:  make([]string, len(rec)),
		index: make(map[string]int, len(rec)),
	}
	for i, h := range rec {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		t.cols[i] = h
		t.index[strings.ToLower(h)] = i
	}
	return t
}

// get returns the trimmed cell under the named column, or "".
func (t *headerTable) get(rec []string, name string) string {
	i, ok := t.index[strings.ToLower(name)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// first returns the first non-empty cell across the ordered candidate
// columns. Used for code backfill across code|1..code|3 and for alias
// resolution, so the pick is a fixed priority and never arbitrary.
func (t *headerTable) first(rec []string, names ...string) string {
	for _, n := range names {
		if v := t.get(rec, n); v != "" {
			return v
		}
	}
	return ""
}

// has reports whether the named column exists, independent of row content.
func (t *headerTable) has(name string) bool {
	_, ok := t.index[strings.ToLower(name)]
	return ok
}

// firstColumn returns the first existing column among names, or "".
func (t *headerTable) firstColumn(names ...string) string {
	for _, n := range names {
		if t.has(n) {
			return n
		}
	}
	return ""
}

// newCSVReader wraps r with a large buffer, BOM skip, and lenient CSV
// settings suitable for hospital exports (ragged rows, loose quoting).
func newCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReaderSize(r, 256*1024)
	if bom, err := br.Peek(3); err == nil && len(bom) == 3 &&
		bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// findHeader scans up to the first few records for the real header row.
// Some standard-charge CSVs carry two metadata rows before it; the header is
// the first row where classify succeeds.
func findHeader(cr *csv.Reader, classify func([]string) bool) (*headerTable, error) {
	for i := 0; i < 3; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("no header row found")
		}
		if err != nil {
			return nil, fmt.Errorf("read header candidate: %w", err)
		}
		if classify(rec) {
			return newHeaderTable(rec), nil
		}
	}
	return nil, fmt.Errorf("no header row found in first 3 rows")
}
