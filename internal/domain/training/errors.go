package training

import "errors"

// Sentinel errors for training and prediction.
var (
	ErrNoTrainingData    = errors.New("no training data available")
	ErrTargetUnavailable = errors.New("target event unavailable")
)
