package essential

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/usecase/pricestats"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
)

// EssentialService handles essential catalog and price operations
type EssentialService struct {
	EssentialRepo   domain.EssentialRepository
	ObservationRepo domain.ObservationRepository
	Cache           domain.ChartCache

	// ChartLocation is the calendar candles are bucketed in
	ChartLocation *time.Location
	StatsTTL      time.Duration

	// Now is the clock behind "now" for stats and default observation timestamps
	Now func() time.Time

	generations generations
}

// NewEssentialService creates a new EssentialService instance
// A nil cache disables memoization
func NewEssentialService(
	essentialRepo domain.EssentialRepository,
	observationRepo domain.ObservationRepository,
	cache domain.ChartCache,
	chartLocation *time.Location,
	statsTTL time.Duration,
) *EssentialService {
	if cache == nil {
		cache = noCache{}
	}
	if chartLocation == nil {
		chartLocation = time.UTC
	}
	return &EssentialService{
		EssentialRepo:   essentialRepo,
		ObservationRepo: observationRepo,
		Cache:           cache,
		ChartLocation:   chartLocation,
		StatsTTL:        statsTTL,
		Now:             time.Now,
	}
}

// CreateEssentialInput holds the fields of a new essential
type CreateEssentialInput struct {
	Name     string
	Category string
	Unit     string
	Icon     string
}

// UpdateEssentialInput holds a partial update; nil fields are left untouched
type UpdateEssentialInput struct {
	ID       uuid.UUID
	Name     *string
	Category *string
	Unit     *string
	Icon     *string
}

// AddPriceInput holds a new price reading
type AddPriceInput struct {
	EssentialID uuid.UUID
	Price       decimal.Decimal
	Location    *string
	Notes       *string
	ObservedAt  *time.Time // Defaults to the service clock
}

// ListItem is an essential together with its latest recorded price
type ListItem struct {
	Essential     *domain.Essential
	LatestPrice   domain.Optional[decimal.Decimal]
	LatestPriceAt *time.Time
}

// Detail is an essential with its full price history, newest first
type Detail struct {
	Essential    *domain.Essential
	PriceHistory []domain.Observation
}

// Create validates and stores a new essential
func (s *EssentialService) Create(ctx context.Context, input CreateEssentialInput) (*domain.Essential, error) {
	icon := input.Icon
	if icon == "" {
		icon = domain.DefaultIcon
	}

	essential := &domain.Essential{
		ID:        uuid.New(),
		Name:      input.Name,
		Category:  input.Category,
		Unit:      input.Unit,
		Icon:      icon,
		CreatedAt: s.Now(),
	}

	if err := essential.Validate(); err != nil {
		return nil, err
	}

	if err := s.EssentialRepo.Create(ctx, essential); err != nil {
		return nil, err
	}

	return essential, nil
}

// Update applies a partial update to an existing essential
func (s *EssentialService) Update(ctx context.Context, input UpdateEssentialInput) (*domain.Essential, error) {
	essential, err := s.EssentialRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		essential.Name = *input.Name
	}
	if input.Category != nil {
		essential.Category = *input.Category
	}
	if input.Unit != nil {
		essential.Unit = *input.Unit
	}
	if input.Icon != nil {
		essential.Icon = *input.Icon
	}

	updatedAt := s.Now()
	essential.UpdatedAt = &updatedAt

	if err := essential.Validate(); err != nil {
		return nil, err
	}

	if err := s.EssentialRepo.Update(ctx, essential); err != nil {
		return nil, err
	}

	return essential, nil
}

// Delete removes an essential; its observations go with it
func (s *EssentialService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.EssentialRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)

	return nil
}

// AddPrice records a new observation for an essential
// Logic: round to cents, validate, verify the essential exists, append, drop cached series
func (s *EssentialService) AddPrice(ctx context.Context, input AddPriceInput) (*domain.Observation, error) {
	observedAt := s.Now()
	if input.ObservedAt != nil {
		observedAt = *input.ObservedAt
	}

	obs := &domain.Observation{
		ID:          uuid.New(),
		EssentialID: input.EssentialID,
		Timestamp:   observedAt,
		Value:       input.Price.Round(domain.PricePrecision),
		Location:    input.Location,
		Notes:       input.Notes,
	}

	if err := obs.Validate(); err != nil {
		return nil, err
	}

	// Verify essential exists (we don't need to use it, just verify it exists)
	if _, err := s.EssentialRepo.GetByID(ctx, input.EssentialID); err != nil {
		return nil, err
	}

	if err := s.ObservationRepo.Add(ctx, obs); err != nil {
		return nil, err
	}

	s.invalidate(ctx, input.EssentialID)

	return obs, nil
}

// List returns all essentials ordered by name with their latest price
func (s *EssentialService) List(ctx context.Context) ([]ListItem, error) {
	essentials, err := s.EssentialRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list essentials: %w", err)
	}

	items := make([]ListItem, 0, len(essentials))
	for _, essential := range essentials {
		item := ListItem{
			Essential:   essential,
			LatestPrice: domain.None[decimal.Decimal](),
		}

		latest, err := s.ObservationRepo.GetLatest(ctx, essential.ID)
		if err == nil {
			item.LatestPrice = domain.Some(latest.Value)
			item.LatestPriceAt = &latest.Timestamp
		}
		// No history yet is a normal state, the item is listed without a price

		items = append(items, item)
	}

	return items, nil
}

// GetByID returns an essential with its price history, newest first
func (s *EssentialService) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	essential, err := s.EssentialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.ObservationRepo.ListByEssential(ctx, id)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(history, func(a, b domain.Observation) int {
		return domain.CompareObservations(b, a)
	})

	return &Detail{
		Essential:    essential,
		PriceHistory: history,
	}, nil
}

// GetPriceHistory returns at most limit observations, newest first
// A zero limit means DefaultHistoryLimit
func (s *EssentialService) GetPriceHistory(ctx context.Context, essentialID uuid.UUID, limit int) ([]domain.Observation, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, MaxHistoryLimit)
	}

	return s.ObservationRepo.ListRecent(ctx, essentialID, limit)
}

// GetStats computes the windowed statistics of an essential as of the service clock
// An essential without any observation yields an absent result, not an error
func (s *EssentialService) GetStats(ctx context.Context, essentialID uuid.UUID) (domain.Optional[domain.WindowedStats], error) {
	if cached, ok := s.Cache.GetStats(ctx, essentialID); ok {
		return domain.Some(*cached), nil
	}

	gen := s.generations.current(essentialID)
	observations, err := s.snapshot(ctx, essentialID)
	if err != nil {
		return domain.None[domain.WindowedStats](), err
	}

	result := pricestats.ComputeStats(observations, s.Now())
	if stats, ok := result.Get(); ok && s.StatsTTL > 0 {
		s.Cache.SetStats(ctx, essentialID, &stats, s.StatsTTL)
		s.dropIfChanged(ctx, essentialID, gen)
	}

	return result, nil
}

// GetChart returns the renderer-facing series of an essential
func (s *EssentialService) GetChart(ctx context.Context, essentialID uuid.UUID, chartType domain.ChartType) (*domain.Chart, error) {
	switch chartType {
	case domain.ChartTypeLine, "":
		observations, err := s.snapshot(ctx, essentialID)
		if err != nil {
			return nil, err
		}
		return &domain.Chart{
			Type: domain.ChartTypeLine,
			Line: pricestats.ToLineSeries(observations),
		}, nil

	case domain.ChartTypeCandlestick:
		if cached, ok := s.Cache.GetCandles(ctx, essentialID); ok {
			return &domain.Chart{Type: domain.ChartTypeCandlestick, Candles: cached}, nil
		}

		gen := s.generations.current(essentialID)
		observations, err := s.snapshot(ctx, essentialID)
		if err != nil {
			return nil, err
		}

		candles := pricestats.AggregateToCandlesIn(observations, s.ChartLocation)
		s.Cache.SetCandles(ctx, essentialID, candles)
		s.dropIfChanged(ctx, essentialID, gen)

		return &domain.Chart{Type: domain.ChartTypeCandlestick, Candles: candles}, nil

	default:
		return nil, fmt.Errorf("%w: unknown chart type %q", domain.ErrInvalidInput, chartType)
	}
}

// snapshot verifies the essential and reads its whole history in one query
func (s *EssentialService) snapshot(ctx context.Context, essentialID uuid.UUID) ([]domain.Observation, error) {
	if _, err := s.EssentialRepo.GetByID(ctx, essentialID); err != nil {
		return nil, err
	}

	observations, err := s.ObservationRepo.ListByEssential(ctx, essentialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	return observations, nil
}

// invalidate records a write to an essential's history and drops its cached series.
// The generation is bumped before the cache is cleared so a concurrent reader
// that stores a series built from an older snapshot notices it in dropIfChanged
func (s *EssentialService) invalidate(ctx context.Context, essentialID uuid.UUID) {
	s.generations.bump(essentialID)

	// Stale cache entries expire on their own if this fails
	_ = s.Cache.Invalidate(ctx, essentialID)
}

// dropIfChanged runs after a derived series was cached from a snapshot taken at generation gen.
// A write since then may have been invalidated before the series landed, so it is dropped again
func (s *EssentialService) dropIfChanged(ctx context.Context, essentialID uuid.UUID, gen uint64) {
	if s.generations.current(essentialID) != gen {
		_ = s.Cache.Invalidate(ctx, essentialID)
	}
}

// generations counts history writes per essential within this process
type generations struct {
	mu sync.Mutex
	m  map[uuid.UUID]uint64
}

func (g *generations) current(id uuid.UUID) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m[id]
}

func (g *generations) bump(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[uuid.UUID]uint64)
	}
	g.m[id]++
}

// noCache is used when no ChartCache is configured
type noCache struct{}

func (noCache) GetStats(context.Context, uuid.UUID) (*domain.WindowedStats, bool)         { return nil, false }
func (noCache) SetStats(context.Context, uuid.UUID, *domain.WindowedStats, time.Duration) {}
func (noCache) GetCandles(context.Context, uuid.UUID) ([]domain.Candle, bool)             { return nil, false }
func (noCache) SetCandles(context.Context, uuid.UUID, []domain.Candle)                    {}
func (noCache) Invalidate(context.Context, uuid.UUID) error                               { return nil }
