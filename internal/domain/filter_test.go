package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{EntityID: 1, Year: 2022, Month: 1, Energy: 10, Temperature: 14},
		{EntityID: 1, Year: 2023, Month: 2, Energy: 20, Temperature: 15},
		{EntityID: 2, Year: 2023, Month: 1, Energy: 5, Temperature: 22},
		{EntityID: 3, Year: 2022, Month: 12, Energy: 40, Temperature: 9},
	}
}

func TestFilterRows(t *testing.T) {
	rows := sampleRows()

	tests := []struct {
		name    string
		filter  Filter
		wantLen int
		check   func(Row) bool
	}{
		{name: "all is identity", filter: Filter{}, wantLen: 4, check: func(Row) bool { return true }},
		{name: "entity only", filter: Filter{}.ForEntity(1), wantLen: 2, check: func(r Row) bool { return r.EntityID == 1 }},
		{name: "year only", filter: Filter{}.ForYear(2023), wantLen: 2, check: func(r Row) bool { return r.Year == 2023 }},
		{name: "entity and year", filter: Filter{}.ForEntity(1).ForYear(2023), wantLen: 1, check: func(r Row) bool { return r.EntityID == 1 && r.Year == 2023 }},
		{name: "no match is empty", filter: Filter{}.ForEntity(99), wantLen: 0, check: func(Row) bool { return false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRows(rows, tt.filter)
			require.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
			assert.LessOrEqual(t, len(got), len(rows))
			for _, r := range got {
				assert.True(t, tt.check(r), "row %+v", r)
			}
		})
	}
}

func TestFilterRows_AllPreservesOrder(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, rows, FilterRows(rows, Filter{}))
}

func TestFilterRows_DoesNotAliasInput(t *testing.T) {
	rows := sampleRows()
	got := FilterRows(rows, Filter{})
	got[0].Energy = 999

	assert.Equal(t, 10.0, rows[0].Energy)
}

func TestParseFilterValue(t *testing.T) {
	for _, s := range []string{"", "all", "ALL", "todas", "todos", "  all "} {
		v, err := ParseFilterValue(s)
		require.NoError(t, err, s)
		assert.Nil(t, v, s)
	}

	v, err := ParseFilterValue("12")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 12, *v)

	_, err = ParseFilterValue("twelve")
	require.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("3", "todos")
	require.NoError(t, err)
	require.NotNil(t, f.EntityID)
	assert.Equal(t, 3, *f.EntityID)
	assert.Nil(t, f.Year)
	assert.Equal(t, "entity=3|year=all", f.Key())

	_, err = ParseFilter("x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity")

	_, err = ParseFilter("", "20x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
}

func TestFilterIsAll(t *testing.T) {
	assert.True(t, Filter{}.IsAll())
	assert.False(t, Filter{}.ForYear(2020).IsAll())
}
