package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultIcon is used when an essential is created without an icon
const DefaultIcon = "📦"

// Essential represents a tracked everyday item (e.g. "Eggs (Dozen)")
// Observations belong to exactly one essential and are deleted with it
type Essential struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Unit      string // e.g. "per gallon", "per dozen"
	Icon      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Validate ensures the essential adheres to domain rules
// Returns an error wrapping ErrInvalidInput if validation fails
func (e *Essential) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: essential name cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(e.Name) > 256 {
		return fmt.Errorf("%w: essential name must be at most 256 characters", ErrInvalidInput)
	}

	if e.Category == "" {
		return fmt.Errorf("%w: essential category cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(e.Category) > 100 {
		return fmt.Errorf("%w: essential category must be at most 100 characters", ErrInvalidInput)
	}

	if e.Unit == "" {
		return fmt.Errorf("%w: essential unit cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(e.Unit) > 50 {
		return fmt.Errorf("%w: essential unit must be at most 50 characters", ErrInvalidInput)
	}

	if utf8.RuneCountInString(e.Icon) > 10 {
		return fmt.Errorf("%w: essential icon must be at most 10 characters", ErrInvalidInput)
	}

	return nil
}
