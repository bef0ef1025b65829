package domain

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricePrecision is the number of fractional digits a stored price carries
const PricePrecision = 2

// Observation is one immutable price reading for an essential
// Location and Notes are free-text annotations and never take part in any computation
type Observation struct {
	ID          uuid.UUID
	EssentialID uuid.UUID
	Timestamp   time.Time
	Value       decimal.Decimal // Fixed point, PricePrecision fractional digits
	Location    *string
	Notes       *string
}

// Validate rejects observations that must never reach the statistics engine
func (o *Observation) Validate() error {
	if o.Timestamp.IsZero() {
		return fmt.Errorf("%w: observation timestamp is required", ErrInvalidInput)
	}

	if o.Value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	if o.Location != nil && utf8.RuneCountInString(*o.Location) > 256 {
		return fmt.Errorf("%w: location must be at most 256 characters", ErrInvalidInput)
	}

	return nil
}

// CompareObservations orders observations by timestamp
// Equal timestamps fall back to ID and then value, so the order never depends on input position
func CompareObservations(a, b Observation) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ID[:], b.ID[:]); c != 0 {
		return c
	}
	return a.Value.Cmp(b.Value)
}
