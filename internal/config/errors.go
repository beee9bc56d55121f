package config

import (
	"errors"
	"fmt"
)

// Callers match these with errors.Is. Every validation failure wraps
// ErrInvalidConfig; schedule problems additionally wrap ErrInvalidBreakpoints.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
	ErrInvalidBreakpoints = fmt.Errorf("%w: decay.breakpoints", ErrInvalidConfig)
)
