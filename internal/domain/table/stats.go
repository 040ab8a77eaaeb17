package table

import (
	"github.com/go-gota/gota/series"
)

// present returns the non-missing values as a float series, or false when
// there are none.
func present(values []float64) (series.Series, bool) {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return series.Series{}, false
	}
	return series.New(kept, series.Float, "values"), true
}

// Median returns the median of the present values; with an even count it is
// the mean of the two middle values. It is missing when no value is present.
func Median(values []float64) float64 {
	s, ok := present(values)
	if !ok {
		return Missing()
	}
	return s.Median()
}

// Min returns the smallest present value, missing when none is present.
func Min(values ...float64) float64 {
	s, ok := present(values)
	if !ok {
		return Missing()
	}
	return s.Min()
}

// Mean returns the mean of the present values, missing when none is present.
func Mean(values ...float64) float64 {
	s, ok := present(values)
	if !ok {
		return Missing()
	}
	return s.Mean()
}
