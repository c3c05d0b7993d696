package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter restricts rows by entity and year. A nil dimension matches
// everything; both dimensions combine with AND.
type Filter struct {
	EntityID *int
	Year     *int
}

// ForEntity returns a copy of f restricted to one entity.
func (f Filter) ForEntity(id int) Filter {
	f.EntityID = &id
	return f
}

// ForYear returns a copy of f restricted to one year.
func (f Filter) ForYear(year int) Filter {
	f.Year = &year
	return f
}

// IsAll reports whether the filter matches every row.
func (f Filter) IsAll() bool { return f.EntityID == nil && f.Year == nil }

// Match reports whether r passes the filter.
func (f Filter) Match(r Row) bool {
	if f.EntityID != nil && r.EntityID != *f.EntityID {
		return false
	}
	if f.Year != nil && r.Year != *f.Year {
		return false
	}
	return true
}

// Key is a stable textual form of the filter, used for memoisation.
func (f Filter) Key() string {
	return "entity=" + optionalInt(f.EntityID) + "|year=" + optionalInt(f.Year)
}

func optionalInt(p *int) string {
	if p == nil {
		return "all"
	}
	return strconv.Itoa(*p)
}

// FilterRows returns the rows that pass f in input order. The input slice is
// never modified and the result never aliases it.
func FilterRows(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseFilterValue parses one filter dimension. Empty input, "all", "todas",
// and "todos" mean no restriction and yield nil.
func ParseFilterValue(s string) (*int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todas", "todos":
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid filter value %q", s)
	}
	return &n, nil
}

// ParseFilter builds a Filter from its textual entity and year values.
func ParseFilter(entity, year string) (Filter, error) {
	e, err := ParseFilterValue(entity)
	if err != nil {
		return Filter{}, fmt.Errorf("entity: %w", err)
	}
	y, err := ParseFilterValue(year)
	if err != nil {
		return Filter{}, fmt.Errorf("year: %w", err)
	}
	return Filter{EntityID: e, Year: y}, nil
}
