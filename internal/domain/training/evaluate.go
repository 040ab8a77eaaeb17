package training

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the accuracy of a prediction against the recorded result.
type Metrics struct {
	MAE float64 `json:"mae"`
	// R2 is nil when it is undefined: fewer than two samples or a constant result.
	R2      *float64 `json:"r2"`
	Samples int      `json:"samples"`
}

// Evaluate compares predictions with actual positions. It returns nil when
// there is nothing to compare against.
func Evaluate(predicted, actual []float64) *Metrics {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nil
	}
	m := &Metrics{
		MAE:     floats.Distance(predicted, actual, 1) / float64(len(actual)),
		Samples: len(actual),
	}
	if len(actual) >= 2 && floats.Max(actual) != floats.Min(actual) {
		r2 := stat.RSquaredFrom(predicted, actual, nil)
		m.R2 = &r2
	}
	return m
}
