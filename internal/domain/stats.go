package domain

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DatasetSummary describes the whole dataset for the overview cards.
type DatasetSummary struct {
	Rows          int     `json:"rows"`
	Entities      int     `json:"entities"`
	PeriodStart   string  `json:"period_start"`
	PeriodEnd     string  `json:"period_end"`
	EnergyMean    float64 `json:"energy_mean"`
	EnergyMedian  float64 `json:"energy_median"`
	EnergyStdDev  float64 `json:"energy_std_dev"`
	EnergyMin     float64 `json:"energy_min"`
	EnergyMax     float64 `json:"energy_max"`
	Temperature   Range   `json:"temperature"`
	Precipitation Range   `json:"precipitation"`
	GDP           Range   `json:"gdp"`
}

// Summarize computes dataset statistics rounded to three decimals. Absent
// cells are excluded. An empty dataset yields the zero summary.
func Summarize(rows []Row) DatasetSummary {
	if len(rows) == 0 {
		return DatasetSummary{}
	}

	s := DatasetSummary{
		Rows:     len(rows),
		Entities: len(DistinctEntities(rows)),
	}

	first, last := rows[0], rows[0]
	for _, r := range rows[1:] {
		if periodLess(r, first) {
			first = r
		}
		if periodLess(last, r) {
			last = r
		}
	}
	s.PeriodStart = PeriodKey(first.Year, first.Month)
	s.PeriodEnd = PeriodKey(last.Year, last.Month)

	energy := columnValues(rows, FieldEnergy)
	if len(energy) > 0 {
		mean, std := meanStdDev(energy)
		s.EnergyMean = round3(mean)
		s.EnergyStdDev = round3(std)
		s.EnergyMedian = round3(median(energy))
		s.EnergyMin = round3(slices.Min(energy))
		s.EnergyMax = round3(slices.Max(energy))
	}
	s.Temperature = columnRange(rows, FieldTemperature)
	s.Precipitation = columnRange(rows, FieldPrecipitation)
	s.GDP = columnRange(rows, FieldGDP)
	return s
}

// CovariateMeans are dataset means offered as suggestions in the prediction
// form, rounded to the precision each form field uses.
type CovariateMeans struct {
	Temperature     float64 `json:"temperature"`
	Precipitation   float64 `json:"precipitation"`
	GDP             float64 `json:"gdp"`
	BasketCost      float64 `json:"basket_cost"`
	HouseholdIncome float64 `json:"household_income"`
}

// SuggestCovariates averages each covariate over rows. It reports false for
// an empty dataset.
func SuggestCovariates(rows []Row) (CovariateMeans, bool) {
	if len(rows) == 0 {
		return CovariateMeans{}, false
	}
	mean := func(f Field) decimal.Decimal {
		vals := columnValues(rows, f)
		if len(vals) == 0 {
			return decimal.Zero
		}
		sum := decimal.Zero
		for _, v := range vals {
			sum = sum.Add(decimal.NewFromFloat(v))
		}
		return sum.Div(decimal.NewFromInt(int64(len(vals))))
	}
	return CovariateMeans{
		Temperature:     mean(FieldTemperature).Round(1).InexactFloat64(),
		Precipitation:   mean(FieldPrecipitation).Round(1).InexactFloat64(),
		GDP:             mean(FieldGDP).Round(0).InexactFloat64(),
		BasketCost:      mean(FieldBasketCost).Round(2).InexactFloat64(),
		HouseholdIncome: mean(FieldHouseholdIncome).Round(2).InexactFloat64(),
	}, true
}

func periodLess(a, b Row) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

func columnValues(rows []Row, f Field) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Value(f); ok {
			out = append(out, v)
		}
	}
	return out
}

func columnRange(rows []Row, f Field) Range {
	vals := columnValues(rows, f)
	if len(vals) == 0 {
		return Range{}
	}
	return Range{Min: round3(slices.Min(vals)), Max: round3(slices.Max(vals))}
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(vals []float64) (float64, float64) {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(vals)))
}

func median(vals []float64) float64 {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round3(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}
