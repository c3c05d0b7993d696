package domain

import "fmt"

// PeriodAverage is the mean billed energy for one year-month bucket.
type PeriodAverage struct {
	Period  string  `json:"period"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// PeriodKey formats a year-month bucket as "YYYY-MM". The zero-padded month
// makes lexicographic order coincide with chronological order.
func PeriodKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// MonthlySeries averages billed energy per year-month bucket, ordered by
// ascending period key. The series is sparse: buckets with no rows are
// absent rather than zero-filled.
func MonthlySeries(rows []Row) []PeriodAverage {
	groups := SortByKey(AverageBy(rows, func(r Row) string { return PeriodKey(r.Year, r.Month) }, energyValue))
	out := make([]PeriodAverage, len(groups))
	for i, g := range groups {
		out[i] = PeriodAverage{Period: g.Key, Average: g.Average, Count: g.Count}
	}
	return out
}
