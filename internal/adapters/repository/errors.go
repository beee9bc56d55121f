package repository

import "errors"

// Sentinel kinds for ranking table errors.
var (
	ErrNotFound     = errors.New("participant not ranked")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
