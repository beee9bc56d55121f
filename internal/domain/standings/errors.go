package standings

import "errors"

// Sentinel errors for inconsistent stage results.
var (
	ErrDuplicatePosition    = errors.New("duplicate position")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrInvalidPosition      = errors.New("position must be positive")
	ErrNonContiguousFinals  = errors.New("finals positions must run 1..k")
)
