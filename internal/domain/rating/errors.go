package rating

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrDuplicateSystem = errors.New("rating system already registered")
	ErrSystemNotFound  = errors.New("rating system not found")
	ErrInvalidSystem   = errors.New("invalid rating system")
)
