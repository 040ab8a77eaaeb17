package regression

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// standardizer centers every column on its training mean and scales it to
// unit deviation. Constant columns keep a scale of one.
type standardizer struct {
	mean  []float64
	scale []float64
}

func fitStandardizer(X [][]float64, width int) standardizer {
	s := standardizer{mean: make([]float64, width), scale: make([]float64, width)}
	col := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		m, sd := stat.MeanStdDev(col, nil)
		if len(X) < 2 || sd == 0 || sd != sd {
			sd = 1
		}
		s.mean[j], s.scale[j] = m, sd
	}
	return s
}

// apply returns the standardized rows as a dense matrix.
func (s standardizer) apply(X [][]float64) *mat.Dense {
	out := mat.NewDense(len(X), len(s.mean), nil)
	for i, row := range X {
		for j, v := range row {
			out.Set(i, j, (v-s.mean[j])/s.scale[j])
		}
	}
	return out
}

// rows returns standardized rows as slices.
func (s standardizer) rows(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.mean[j]) / s.scale[j]
		}
		out[i] = r
	}
	return out
}
