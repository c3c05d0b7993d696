package domain

import (
	"cmp"
	"slices"
)

// GroupAverage is the arithmetic mean of a value over one group.
type GroupAverage[K comparable] struct {
	Key     K       `json:"key"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// AverageBy partitions items by key and averages value over each group.
// Items for which value reports false are left out of both the sum and the
// count. Groups are returned in order of first appearance, so the result is
// deterministic for a given input; callers apply their own presentation
// order. Empty input yields an empty, non-nil result.
func AverageBy[T any, K comparable](items []T, key func(T) K, value func(T) (float64, bool)) []GroupAverage[K] {
	type acc struct {
		sum   float64
		count int
	}
	index := make(map[K]int)
	var keys []K
	var accs []acc

	for _, it := range items {
		v, ok := value(it)
		if !ok {
			continue
		}
		k := key(it)
		i, seen := index[k]
		if !seen {
			i = len(keys)
			index[k] = i
			keys = append(keys, k)
			accs = append(accs, acc{})
		}
		accs[i].sum += v
		accs[i].count++
	}

	out := make([]GroupAverage[K], len(keys))
	for i, k := range keys {
		out[i] = GroupAverage[K]{Key: k, Average: accs[i].sum / float64(accs[i].count), Count: accs[i].count}
	}
	return out
}

// SortByAverageDesc returns a copy ordered by descending average. Ties keep
// their input order.
func SortByAverageDesc[K comparable](groups []GroupAverage[K]) []GroupAverage[K] {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b GroupAverage[K]) int {
		return cmp.Compare(b.Average, a.Average)
	})
	return out
}

// SortByKey returns a copy ordered by ascending key.
func SortByKey[K cmp.Ordered](groups []GroupAverage[K]) []GroupAverage[K] {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b GroupAverage[K]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// TopN returns at most n leading groups. n <= 0 returns all of them.
func TopN[K comparable](groups []GroupAverage[K], n int) []GroupAverage[K] {
	if n <= 0 || n >= len(groups) {
		return groups
	}
	return groups[:n]
}

// EntityAverages averages field per entity, skipping absent cells.
func EntityAverages(rows []Row, f Field) []GroupAverage[int] {
	return AverageBy(rows, rowEntity, func(r Row) (float64, bool) { return r.Value(f) })
}

// TopEntitiesLimit is the number of entities the consumption ranking shows
// by default.
const TopEntitiesLimit = 15

// TopEntities ranks entities by mean billed energy, highest first.
func TopEntities(rows []Row, limit int) []GroupAverage[int] {
	return TopN(SortByAverageDesc(EntityAverages(rows, FieldEnergy)), limit)
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name for 1-12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// MonthAverage is the mean billed energy for one calendar month across years.
type MonthAverage struct {
	Month   int     `json:"month"`
	Name    string  `json:"name"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Seasonality averages billed energy by calendar month, ascending by month.
// Months without rows are absent.
func Seasonality(rows []Row) []MonthAverage {
	groups := SortByKey(AverageBy(rows, func(r Row) int { return r.Month }, energyValue))
	out := make([]MonthAverage, len(groups))
	for i, g := range groups {
		out[i] = MonthAverage{Month: g.Key, Name: MonthName(g.Key), Average: g.Average, Count: g.Count}
	}
	return out
}

// ScatterPoint pairs temperature with billed energy for one row.
type ScatterPoint struct {
	EntityID    int     `json:"entity_id"`
	Temperature float64 `json:"temperature"`
	Energy      float64 `json:"energy"`
}

// TemperatureScatter returns one point per row that has both values, in row
// order.
func TemperatureScatter(rows []Row) []ScatterPoint {
	out := make([]ScatterPoint, 0, len(rows))
	for _, r := range rows {
		t, okT := r.Value(FieldTemperature)
		e, okE := r.Value(FieldEnergy)
		if !okT || !okE {
			continue
		}
		out = append(out, ScatterPoint{EntityID: r.EntityID, Temperature: t, Energy: e})
	}
	return out
}

func rowEntity(r Row) int { return r.EntityID }

func energyValue(r Row) (float64, bool) { return r.Value(FieldEnergy) }
