package batch

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrNilJob    = errors.New("batch job is nil")
	ErrCancelled = errors.New("batch cancelled")
)
