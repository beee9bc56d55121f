package service

import (
	"time"

	"github.com/okian/rankpoints/internal/adapters/repository"
	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/rating"
	"github.com/okian/rankpoints/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration. The engine keeps its own copy.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg.Clone()
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRegistry sets the rating system registry. An empty registry gets the
// Glicko system registered on construction.
func WithRegistry(r *rating.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithRatingSystemID selects the active rating system.
func WithRatingSystemID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.systemID = id
		}
	}
}

// WithWorkerCount overrides worker_count from the configuration.
func WithWorkerCount(count int) Option {
	return func(e *Engine) {
		if count > 0 {
			e.workerCount = count
		}
	}
}

// WithClock sets the time source used when no reference date is given.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStore sets the ranking table.
func WithStore(s repository.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.table = s
		}
	}
}
