package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/essentialstracker/backend/internal/domain"
)

const sampleLocation = "Sample Store"

// sampleHistory is the synthetic price path seeded behind a sample price,
// as an age and a multiplier of the sample price
var sampleHistory = []struct {
	age    time.Duration
	factor decimal.Decimal
}{
	{7 * 24 * time.Hour, decimal.RequireFromString("0.95")},
	{24 * time.Hour, decimal.RequireFromString("0.98")},
	{time.Hour, decimal.RequireFromString("0.995")},
	{0, decimal.NewFromInt(1)},
}

// CatalogSeeder ensures every catalog essential exists
type CatalogSeeder struct {
	essentialRepo   domain.EssentialRepository
	observationRepo domain.ObservationRepository
	catalog         *Catalog

	// SampleHistory seeds a short price history for newly created essentials with a sample price
	SampleHistory bool
	Now           func() time.Time
}

// NewCatalogSeeder creates a new CatalogSeeder instance
func NewCatalogSeeder(
	essentialRepo domain.EssentialRepository,
	observationRepo domain.ObservationRepository,
	catalog *Catalog,
	sampleHistory bool,
) *CatalogSeeder {
	return &CatalogSeeder{
		essentialRepo:   essentialRepo,
		observationRepo: observationRepo,
		catalog:         catalog,
		SampleHistory:   sampleHistory,
		Now:             time.Now,
	}
}

// Seed creates the catalog essentials that don't exist yet, matched by name
// Existing essentials are left untouched so running it twice is a no-op
// It returns the number of essentials created
func (s *CatalogSeeder) Seed(ctx context.Context) (int, error) {
	created := 0

	for _, entry := range s.catalog.Essentials {
		_, err := s.essentialRepo.GetByName(ctx, entry.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}

		now := s.Now()
		icon := entry.Icon
		if icon == "" {
			icon = domain.DefaultIcon
		}

		essential := &domain.Essential{
			ID:        uuid.New(),
			Name:      entry.Name,
			Category:  entry.Category,
			Unit:      entry.Unit,
			Icon:      icon,
			CreatedAt: now,
		}

		// Validate before creating
		if err := essential.Validate(); err != nil {
			return created, err
		}

		if err := s.essentialRepo.Create(ctx, essential); err != nil {
			return created, err
		}
		created++

		if s.SampleHistory {
			if err := s.seedSampleHistory(ctx, essential.ID, entry, now); err != nil {
				return created, err
			}
		}
	}

	return created, nil
}

func (s *CatalogSeeder) seedSampleHistory(ctx context.Context, essentialID uuid.UUID, entry CatalogEntry, now time.Time) error {
	price, ok, err := entry.samplePrice()
	if err != nil || !ok {
		return err
	}

	location := sampleLocation
	for _, point := range sampleHistory {
		obs := &domain.Observation{
			ID:          uuid.New(),
			EssentialID: essentialID,
			Timestamp:   now.Add(-point.age),
			Value:       price.Mul(point.factor).Round(domain.PricePrecision),
			Location:    &location,
		}
		if err := obs.Validate(); err != nil {
			return err
		}
		if err := s.observationRepo.Add(ctx, obs); err != nil {
			return err
		}
	}

	return nil
}
