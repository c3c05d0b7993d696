package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesForEntity(t *testing.T) {
	v1 := ResultTable{Version: SchemaV1, V1: []ResultRowV1{
		{Date: day(2023, 3, 1), EntityID: 5, Actual: 3, Predicted: 2.5},
		{Date: day(2023, 1, 1), EntityID: 5, Actual: 1, Predicted: 1.5},
		{Date: day(2023, 2, 1), EntityID: 2, Actual: 9, Predicted: 8},
		{Date: day(2023, 1, 1), EntityID: 2, Actual: 7, Predicted: 7.5},
	}}

	t.Run("defaults to lowest entity", func(t *testing.T) {
		got, ok := SeriesForEntity(v1, Filter{})
		require.True(t, ok)
		assert.Equal(t, 2, got.EntityID)
		require.Len(t, got.Points, 2)
		assert.Equal(t, day(2023, 1, 1), got.Points[0].Date)
		assert.Equal(t, 7.0, got.Points[0].Actual)
	})

	t.Run("selected entity sorted by date", func(t *testing.T) {
		got, ok := SeriesForEntity(v1, Filter{}.ForEntity(5))
		require.True(t, ok)
		require.Len(t, got.Points, 2)
		assert.True(t, got.Points[0].Date.Before(got.Points[1].Date))
		assert.Equal(t, 1.5, got.Points[0].Predicted)
	})

	t.Run("unknown entity yields empty points", func(t *testing.T) {
		got, ok := SeriesForEntity(v1, Filter{}.ForEntity(77))
		require.True(t, ok)
		assert.Equal(t, 77, got.EntityID)
		assert.Empty(t, got.Points)
	})

	t.Run("empty table", func(t *testing.T) {
		_, ok := SeriesForEntity(ResultTable{Version: SchemaV2}, Filter{})
		assert.False(t, ok)
	})
}

func TestResultTablePoints_V2(t *testing.T) {
	tbl := ResultTable{Version: SchemaV2, V2: []ResultRowV2{
		{Date: day(2024, 5, 1), EntityID: 1, YTrue: 10, YPred: 12},
	}}
	assert.Equal(t, []ResultPoint{{Date: day(2024, 5, 1), EntityID: 1, Actual: 10, Predicted: 12}}, tbl.Points())
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, "v2", tbl.Version.String())
}

func TestFitDataPairs_TruncatesToShorter(t *testing.T) {
	d := FitData{
		TrainActual:    []float64{1, 2, 3},
		TrainPredicted: []float64{1.1, 2.1},
		TestActual:     []float64{4},
		TestPredicted:  []float64{3.9},
	}
	got := d.Pairs()

	assert.Equal(t, []FitPoint{{1, 1.1}, {2, 2.1}}, got.Train)
	assert.Equal(t, []FitPoint{{4, 3.9}}, got.Test)
}
