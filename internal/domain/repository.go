package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EssentialRepository defines the interface for essential persistence operations
type EssentialRepository interface {
	// GetByID retrieves an essential by its ID
	// Returns an error wrapping ErrNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Essential, error)

	// GetByName retrieves an essential by its exact name
	GetByName(ctx context.Context, name string) (*Essential, error)

	// List retrieves all essentials ordered by name
	List(ctx context.Context) ([]*Essential, error)

	// Create creates a new essential
	Create(ctx context.Context, essential *Essential) error

	// Update overwrites name, category, unit and icon of an existing essential
	Update(ctx context.Context, essential *Essential) error

	// Delete removes an essential together with all of its observations
	Delete(ctx context.Context, id uuid.UUID) error
}

// ObservationRepository defines the interface for price observation persistence operations
// Observations are append-only: there is no update
type ObservationRepository interface {
	// Add stores a new observation
	Add(ctx context.Context, obs *Observation) error

	// ListByEssential returns the full history of an essential as one consistent snapshot
	ListByEssential(ctx context.Context, essentialID uuid.UUID) ([]Observation, error)

	// ListRecent returns at most limit observations, newest first
	ListRecent(ctx context.Context, essentialID uuid.UUID, limit int) ([]Observation, error)

	// GetLatest retrieves the most recent observation of an essential
	// Returns an error wrapping ErrNotFound if there is none
	GetLatest(ctx context.Context, essentialID uuid.UUID) (*Observation, error)
}

// ChartCache memoizes derived series per essential
// Implementations must treat a miss and a backend failure the same way: ok == false
type ChartCache interface {
	GetStats(ctx context.Context, essentialID uuid.UUID) (*WindowedStats, bool)
	SetStats(ctx context.Context, essentialID uuid.UUID, stats *WindowedStats, ttl time.Duration)

	GetCandles(ctx context.Context, essentialID uuid.UUID) ([]Candle, bool)
	SetCandles(ctx context.Context, essentialID uuid.UUID, candles []Candle)

	// Invalidate drops everything cached for an essential, called whenever its observations change
	Invalidate(ctx context.Context, essentialID uuid.UUID) error
}
