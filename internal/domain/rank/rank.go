// Package rank assigns dense ranks.
package rank

import (
	"math"
	"sort"
)

// Dense ranks values ascending starting at 1. Equal values share a rank and
// the next distinct value takes the following integer, so ranks have no gaps.
// NaN values get rank 0.
func Dense(values []float64) []int {
	distinct := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			distinct = append(distinct, v)
		}
	}
	sort.Float64s(distinct)

	ranks := make(map[float64]int, len(distinct))
	next := 0
	for i, v := range distinct {
		if i == 0 || v != distinct[i-1] {
			next++
			ranks[v] = next
		}
	}

	out := make([]int, len(values))
	for i, v := range values {
		out[i] = ranks[v] // NaN is never a key
	}
	return out
}
