package distribution

import "errors"

// Sentinel errors for invalid finish lists.
var (
	ErrDuplicatePosition = errors.New("duplicate finishing position")
	ErrInvalidPosition   = errors.New("finishing position must be positive")
)
