package model

import "errors"

// ErrUnknownValue reports a name outside one of the closed enums.
var ErrUnknownValue = errors.New("unknown value")
