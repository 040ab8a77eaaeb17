package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrDumpFailed = errors.New("metrics dump failed")
)
