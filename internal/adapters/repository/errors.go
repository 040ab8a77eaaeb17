package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("prediction run not found")
	ErrInvalidLimit = errors.New("invalid history limit")
)
