package regression

import "errors"

// Sentinel errors for model fitting and prediction.
var (
	ErrEmptyTrainingSet  = errors.New("empty training set")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFitted         = errors.New("model not fitted")
	ErrUnknownKind       = errors.New("unknown model kind")
	ErrSingular          = errors.New("normal equations are singular")
)
