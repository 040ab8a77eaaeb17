package table

import "errors"

// Sentinel errors for table construction.
var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length mismatch")
)
