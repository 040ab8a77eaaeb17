package openf1

import "errors"

// Sentinel kinds for provider errors.
var (
	ErrRateLimited      = errors.New("openf1 rate limit exceeded")
	ErrUnexpectedStatus = errors.New("openf1 unexpected status")
	ErrDecode           = errors.New("openf1 response decode failed")
)
