package tablestore

import (
	"errors"
	"fmt"

	"github.com/okian/gridcast/internal/domain/model"
)

// Sentinel kinds for table store errors.
var (
	ErrTableNotFound = fmt.Errorf("table not found: %w", model.ErrEventNotFound)
	ErrMalformed     = errors.New("malformed table file")
)
