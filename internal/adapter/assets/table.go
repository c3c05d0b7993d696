package assets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// errEmptyCell marks a cell that was present in the header but blank.
var errEmptyCell = errors.New("empty cell")

// table is a header-indexed CSV.
type table struct {
	columns map[string]int
	records [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("missing header row")
	}

	header := all[0]
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}

	records := make([][]string, 0, len(all)-1)
	for _, rec := range all[1:] {
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return &table{columns: cols, records: records}, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (t *table) has(cols ...string) bool {
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			return false
		}
	}
	return true
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value of col in rec, or "" when the column or
// cell is absent.
func (t *table) cell(rec []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// rowReader parses typed cells of one record and keeps the first error.
type rowReader struct {
	t    *table
	rec  []string
	line int
	err  error
}

func (t *table) row(i int) *rowReader {
	// Data starts on line 2 after the header.
	return &rowReader{t: t, rec: t.records[i], line: i + 2}
}

func (r *rowReader) fail(col string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("line %d column %q: %w", r.line, col, err)
	}
}

// float parses a required finite number.
func (r *rowReader) float(col string) float64 {
	v, err := parseFloat(r.t.cell(r.rec, col))
	if err != nil {
		r.fail(col, err)
	}
	return v
}

// optFloat parses an optional number; blank and non-finite cells report false.
func (r *rowReader) optFloat(col string) (float64, bool) {
	v, err := parseFloat(r.t.cell(r.rec, col))
	if errors.Is(err, errEmptyCell) || errors.Is(err, errNonFinite) {
		return 0, false
	}
	if err != nil {
		r.fail(col, err)
		return 0, false
	}
	return v, true
}

// integer parses a required integer. Integral floats such as "2023.0" are
// accepted because some exports write every number as a float.
func (r *rowReader) integer(col string) int {
	v, err := parseFloat(r.t.cell(r.rec, col))
	if err != nil {
		r.fail(col, err)
		return 0
	}
	if v != math.Trunc(v) {
		r.fail(col, fmt.Errorf("not an integer: %v", v))
		return 0
	}
	return int(v)
}

func (r *rowReader) text(col string) string {
	return r.t.cell(r.rec, col)
}

func (r *rowReader) date(col string) time.Time {
	s := r.t.cell(r.rec, col)
	if s == "" {
		r.fail(col, errEmptyCell)
		return time.Time{}
	}
	d, err := parseDate(s)
	if err != nil {
		r.fail(col, err)
	}
	return d
}

var errNonFinite = errors.New("non-finite number")

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyCell
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNonFinite
	}
	return v, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
