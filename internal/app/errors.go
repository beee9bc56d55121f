package service

import "github.com/okian/rankpoints/internal/domain/decay"

// ErrTournamentNotFound reports a standing whose tournament cannot be resolved.
var ErrTournamentNotFound = decay.ErrTournamentNotFound
