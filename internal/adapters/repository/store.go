// Package repository holds the in-memory participant ranking table.
package repository

import "context"

// Entry is one row of the ranking table.
type Entry struct {
	Rank          int
	ParticipantID string
	Points        float64
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Set replaces the participant's ranking points.
	Set(ctx context.Context, participantID string, points float64) error
	// Remove drops a participant; it reports whether one was present.
	Remove(ctx context.Context, participantID string) bool

	// Rank returns the participant's current rank and points.
	// Returns ErrNotFound if the participant is unknown.
	Rank(ctx context.Context, participantID string) (Entry, error)

	// TopN returns the first n entries ordered by points desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked participants.
	Count(ctx context.Context) int
}
