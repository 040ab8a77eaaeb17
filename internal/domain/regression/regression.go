// Package regression defines the fit/predict contract used to turn feature
// rows into predicted finishing positions, with two implementations.
package regression

import (
	"fmt"
)

// Default model configuration constants.
const (
	defaultLambda        = 1.0
	defaultLearningRate  = 0.001
	defaultMaxIterations = 2000
)

// Kind names a regressor implementation.
type Kind string

const (
	KindRidge    Kind = "ridge"
	KindGradient Kind = "gradient"
)

// Regressor learns a mapping from feature rows to a real-valued target.
type Regressor interface {
	// Fit trains on X (one row per sample) and y.
	Fit(X [][]float64, y []float64) error
	// Predict scores rows with the same column layout as the training rows.
	Predict(X [][]float64) ([]float64, error)
}

// Option configures regressors built by New.
type Option func(*settings)

type settings struct {
	lambda        float64
	learningRate  float64
	maxIterations int
}

// WithLambda sets the ridge L2 penalty. Negative values are ignored.
func WithLambda(lambda float64) Option {
	return func(s *settings) {
		if lambda >= 0 {
			s.lambda = lambda
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(rate float64) Option {
	return func(s *settings) {
		if rate > 0 {
			s.learningRate = rate
		}
	}
}

// WithMaxIterations sets the gradient iteration budget.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// New builds an unfitted regressor of the given kind.
func New(kind Kind, opts ...Option) (Regressor, error) {
	s := settings{lambda: defaultLambda, learningRate: defaultLearningRate, maxIterations: defaultMaxIterations}
	for _, opt := range opts {
		opt(&s)
	}
	switch kind {
	case KindRidge, "":
		return NewRidge(s.lambda), nil
	case KindGradient:
		return NewGradient(s.learningRate, s.maxIterations), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Factory returns a constructor for fresh regressors of one configuration.
func Factory(kind Kind, opts ...Option) (func() Regressor, error) {
	if _, err := New(kind, opts...); err != nil {
		return nil, err
	}
	return func() Regressor {
		r, _ := New(kind, opts...)
		return r
	}, nil
}

// checkTraining validates a training set and returns its width.
func checkTraining(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), width)
		}
	}
	return width, nil
}

func checkRows(X [][]float64, width int) error {
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), width)
		}
	}
	return nil
}
