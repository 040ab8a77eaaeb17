package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoProvider      = errors.New("no data provider configured")
	ErrHistoryDisabled = errors.New("prediction history is disabled")
)
