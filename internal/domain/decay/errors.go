package decay

import "errors"

// ErrTournamentNotFound reports a standing whose tournament date is unknown.
var ErrTournamentNotFound = errors.New("tournament not found")
