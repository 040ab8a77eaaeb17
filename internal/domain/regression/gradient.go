package regression

import (
	"fmt"
	"io"

	"github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"
)

// Gradient is ordinary least squares fitted by batch gradient descent on
// standardized features.
type Gradient struct {
	learningRate  float64
	maxIterations int
	std           standardizer
	model         *linear.LeastSquares
	width         int
}

// NewGradient creates a gradient-descent regressor.
func NewGradient(learningRate float64, maxIterations int) *Gradient {
	return &Gradient{learningRate: learningRate, maxIterations: maxIterations}
}

// Fit runs the configured number of batch iterations.
func (g *Gradient) Fit(X [][]float64, y []float64) error {
	width, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	g.std = fitStandardizer(X, width)
	g.width = width

	target := make([]float64, len(y))
	copy(target, y)
	m := linear.NewLeastSquares(base.BatchGA, g.learningRate, 0, g.maxIterations, g.std.rows(X), target)
	m.Output = io.Discard
	if err := m.Learn(); err != nil {
		return fmt.Errorf("gradient fit: %w", err)
	}
	g.model = m
	return nil
}

// Predict scores rows with the learned parameters.
func (g *Gradient) Predict(X [][]float64) ([]float64, error) {
	if g.model == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, g.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range g.std.rows(X) {
		p, err := g.model.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("gradient predict row %d: %w", i, err)
		}
		out[i] = p[0]
	}
	return out, nil
}
