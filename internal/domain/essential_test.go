package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEssential_Validate(t *testing.T) {
	tests := []struct {
		name      string
		essential Essential
		wantErr   bool
		errMsg    string
	}{
		{
			name: "Complete essential should pass",
			essential: Essential{
				ID:       uuid.New(),
				Name:     "Eggs (Dozen)",
				Category: "Dairy & Eggs",
				Unit:     "per dozen",
				Icon:     "🥚",
			},
			wantErr: false,
		},
		{
			name: "Essential without icon should pass",
			essential: Essential{
				ID:       uuid.New(),
				Name:     "Whole Milk",
				Category: "Dairy & Eggs",
				Unit:     "per gallon",
			},
			wantErr: false,
		},
		{
			name: "Empty name should fail",
			essential: Essential{
				ID:       uuid.New(),
				Category: "Bakery",
				Unit:     "per loaf",
			},
			wantErr: true,
			errMsg:  "essential name cannot be empty",
		},
		{
			name: "Name longer than 256 characters should fail",
			essential: Essential{
				ID:       uuid.New(),
				Name:     strings.Repeat("a", 257),
				Category: "Bakery",
				Unit:     "per loaf",
			},
			wantErr: true,
			errMsg:  "essential name must be at most 256 characters",
		},
		{
			name: "Empty category should fail",
			essential: Essential{
				ID:   uuid.New(),
				Name: "White Bread",
				Unit: "per loaf",
			},
			wantErr: true,
			errMsg:  "essential category cannot be empty",
		},
		{
			name: "Empty unit should fail",
			essential: Essential{
				ID:       uuid.New(),
				Name:     "White Bread",
				Category: "Bakery",
			},
			wantErr: true,
			errMsg:  "essential unit cannot be empty",
		},
		{
			name: "Icon longer than 10 characters should fail",
			essential: Essential{
				ID:       uuid.New(),
				Name:     "White Bread",
				Category: "Bakery",
				Unit:     "per loaf",
				Icon:     strings.Repeat("🍞", 11),
			},
			wantErr: true,
			errMsg:  "essential icon must be at most 10 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.essential.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
