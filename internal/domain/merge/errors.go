package merge

import "errors"

// ErrDuplicateDriver reports an identity that occurs twice within one session.
var ErrDuplicateDriver = errors.New("duplicate driver identity")
