package essential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/domain/mocks"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	essentialRepo   *mocks.EssentialRepository
	observationRepo *mocks.ObservationRepository
	cache           *mocks.ChartCache
	service         *EssentialService
}

func newFixture() *fixture {
	f := &fixture{
		essentialRepo:   new(mocks.EssentialRepository),
		observationRepo: new(mocks.ObservationRepository),
		cache:           new(mocks.ChartCache),
	}
	f.service = NewEssentialService(f.essentialRepo, f.observationRepo, f.cache, time.UTC, time.Minute)
	f.service.Now = func() time.Time { return fixedNow }
	return f
}

func eggs() *domain.Essential {
	return &domain.Essential{
		ID:        uuid.New(),
		Name:      "Eggs (Dozen)",
		Category:  "Dairy & Eggs",
		Unit:      "per dozen",
		Icon:      "🥚",
		CreatedAt: fixedNow.Add(-90 * 24 * time.Hour),
	}
}

func observation(essentialID uuid.UUID, ts time.Time, price string) domain.Observation {
	return domain.Observation{
		ID:          uuid.New(),
		EssentialID: essentialID,
		Timestamp:   ts,
		Value:       decimal.RequireFromString(price),
	}
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("essential %s: %w", id, domain.ErrNotFound)
}

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.essentialRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.Essential) bool {
		return e.Name == "Whole Milk" && e.Icon == domain.DefaultIcon && e.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	essential, err := f.service.Create(ctx, CreateEssentialInput{
		Name:     "Whole Milk",
		Category: "Dairy & Eggs",
		Unit:     "per gallon",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, essential.ID)
	assert.Equal(t, domain.DefaultIcon, essential.Icon)
	f.essentialRepo.AssertExpectations(t)
}

func TestCreate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential, err := f.service.Create(ctx, CreateEssentialInput{Category: "Bakery", Unit: "per loaf"})

	assert.Nil(t, essential)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.essentialRepo.AssertNotCalled(t, "Create")
}

func TestUpdate_PartialFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	existing := eggs()
	newName := "Eggs (Large, Dozen)"

	f.essentialRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	f.essentialRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Essential) bool {
		return e.Name == newName && e.Unit == "per dozen" && e.UpdatedAt != nil
	})).Return(nil)

	updated, err := f.service.Update(ctx, UpdateEssentialInput{ID: existing.ID, Name: &newName})

	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, "Dairy & Eggs", updated.Category)
	f.essentialRepo.AssertExpectations(t)
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	f.essentialRepo.On("GetByID", ctx, id).Return(nil, notFound(id))

	_, err := f.service.Update(ctx, UpdateEssentialInput{ID: id})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.essentialRepo.AssertNotCalled(t, "Update")
}

func TestDelete_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	f.essentialRepo.On("Delete", ctx, id).Return(nil)
	f.cache.On("Invalidate", ctx, id).Return(nil)

	assert.NoError(t, f.service.Delete(ctx, id))
	f.essentialRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAddPrice_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	location := "Corner Market"

	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("Add", ctx, mock.MatchedBy(func(o *domain.Observation) bool {
		return o.EssentialID == essential.ID &&
			o.Value.Equal(decimal.RequireFromString("4.13")) &&
			o.Timestamp.Equal(fixedNow) &&
			o.Location != nil && *o.Location == location
	})).Return(nil)
	f.cache.On("Invalidate", ctx, essential.ID).Return(nil)

	obs, err := f.service.AddPrice(ctx, AddPriceInput{
		EssentialID: essential.ID,
		Price:       decimal.RequireFromString("4.125"), // rounded to cents
		Location:    &location,
	})

	require.NoError(t, err)
	assert.Equal(t, "4.13", obs.Value.StringFixed(2))
	f.essentialRepo.AssertExpectations(t)
	f.observationRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAddPrice_CustomTimestamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	observedAt := fixedNow.Add(-72 * time.Hour)

	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("Add", ctx, mock.MatchedBy(func(o *domain.Observation) bool {
		return o.Timestamp.Equal(observedAt)
	})).Return(nil)
	f.cache.On("Invalidate", ctx, essential.ID).Return(errors.New("redis down"))

	// A failed invalidation does not fail the write
	_, err := f.service.AddPrice(ctx, AddPriceInput{
		EssentialID: essential.ID,
		Price:       decimal.NewFromInt(4),
		ObservedAt:  &observedAt,
	})

	assert.NoError(t, err)
	f.observationRepo.AssertExpectations(t)
}

func TestAddPrice_NonPositiveAmounts(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", decimal.NewFromInt(-100)},
		{"rounds to zero", decimal.RequireFromString("0.004")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()

			_, err := f.service.AddPrice(ctx, AddPriceInput{EssentialID: uuid.New(), Price: tt.price})

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), "price must be positive")
			f.essentialRepo.AssertNotCalled(t, "GetByID")
			f.observationRepo.AssertNotCalled(t, "Add")
		})
	}
}

func TestAddPrice_EssentialNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	f.essentialRepo.On("GetByID", ctx, id).Return(nil, notFound(id))

	_, err := f.service.AddPrice(ctx, AddPriceInput{EssentialID: id, Price: decimal.NewFromInt(3)})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.observationRepo.AssertNotCalled(t, "Add")
	f.cache.AssertNotCalled(t, "Invalidate")
}

func TestList_WithAndWithoutLatestPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	withPrice := eggs()
	withoutPrice := &domain.Essential{ID: uuid.New(), Name: "Bananas", Category: "Produce", Unit: "per pound"}
	latest := observation(withPrice.ID, fixedNow.Add(-time.Hour), "4.50")

	f.essentialRepo.On("List", ctx).Return([]*domain.Essential{withoutPrice, withPrice}, nil)
	f.observationRepo.On("GetLatest", ctx, withPrice.ID).Return(&latest, nil)
	f.observationRepo.On("GetLatest", ctx, withoutPrice.ID).Return(nil, notFound(withoutPrice.ID))

	items, err := f.service.List(ctx)

	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Bananas", items[0].Essential.Name)
	assert.False(t, items[0].LatestPrice.IsPresent())
	assert.Nil(t, items[0].LatestPriceAt)

	price, ok := items[1].LatestPrice.Get()
	assert.True(t, ok)
	assert.Equal(t, "4.50", price.StringFixed(2))
	assert.Equal(t, latest.Timestamp, *items[1].LatestPriceAt)
}

func TestGetByID_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	history := []domain.Observation{
		observation(essential.ID, fixedNow.Add(-48*time.Hour), "4.00"),
		observation(essential.ID, fixedNow.Add(-time.Hour), "4.20"),
		observation(essential.ID, fixedNow.Add(-24*time.Hour), "4.10"),
	}

	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("ListByEssential", ctx, essential.ID).Return(history, nil)

	detail, err := f.service.GetByID(ctx, essential.ID)

	require.NoError(t, err)
	require.Len(t, detail.PriceHistory, 3)
	assert.Equal(t, "4.20", detail.PriceHistory[0].Value.StringFixed(2))
	assert.Equal(t, "4.10", detail.PriceHistory[1].Value.StringFixed(2))
	assert.Equal(t, "4.00", detail.PriceHistory[2].Value.StringFixed(2))
}

func TestGetPriceHistory_Limits(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	f.observationRepo.On("ListRecent", ctx, id, DefaultHistoryLimit).Return([]domain.Observation{}, nil)
	f.observationRepo.On("ListRecent", ctx, id, 100).Return([]domain.Observation{}, nil)

	_, err := f.service.GetPriceHistory(ctx, id, 0)
	assert.NoError(t, err)

	_, err = f.service.GetPriceHistory(ctx, id, 100)
	assert.NoError(t, err)

	_, err = f.service.GetPriceHistory(ctx, id, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.GetPriceHistory(ctx, id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.observationRepo.AssertExpectations(t)
}

func TestGetStats_ComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	history := []domain.Observation{
		observation(essential.ID, fixedNow.Add(-8*24*time.Hour), "100.00"),
		observation(essential.ID, fixedNow.Add(-24*time.Hour), "90.00"),
		observation(essential.ID, fixedNow, "99.00"),
	}

	f.cache.On("GetStats", ctx, essential.ID).Return(nil, false)
	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("ListByEssential", ctx, essential.ID).Return(history, nil)
	f.cache.On("SetStats", ctx, essential.ID, mock.AnythingOfType("*domain.WindowedStats"), time.Minute).Return()

	result, err := f.service.GetStats(ctx, essential.ID)

	require.NoError(t, err)
	stats, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, "99.00", stats.CurrentPrice.StringFixed(2))
	assert.Equal(t, fixedNow, stats.AsOf)

	change, ok := stats.Change(domain.Window24h).Get()
	assert.True(t, ok)
	assert.Equal(t, "10.00", change.StringFixed(2))

	f.cache.AssertExpectations(t)
}

func TestGetStats_CacheHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	cached := &domain.WindowedStats{CurrentPrice: decimal.NewFromInt(3), AsOf: fixedNow}
	f.cache.On("GetStats", ctx, id).Return(cached, true)

	result, err := f.service.GetStats(ctx, id)

	require.NoError(t, err)
	stats, ok := result.Get()
	require.True(t, ok)
	assert.True(t, stats.CurrentPrice.Equal(decimal.NewFromInt(3)))
	f.essentialRepo.AssertNotCalled(t, "GetByID")
	f.observationRepo.AssertNotCalled(t, "ListByEssential")
}

func TestGetStats_NoHistoryIsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	f.cache.On("GetStats", ctx, essential.ID).Return(nil, false)
	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("ListByEssential", ctx, essential.ID).Return([]domain.Observation{}, nil)

	result, err := f.service.GetStats(ctx, essential.ID)

	assert.NoError(t, err)
	assert.False(t, result.IsPresent())
	f.cache.AssertNotCalled(t, "SetStats")
}

func TestGetStats_EssentialNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	f.cache.On("GetStats", ctx, id).Return(nil, false)
	f.essentialRepo.On("GetByID", ctx, id).Return(nil, notFound(id))

	result, err := f.service.GetStats(ctx, id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, result.IsPresent())
	f.observationRepo.AssertNotCalled(t, "ListByEssential")
}

func TestGetChart_Line(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	history := []domain.Observation{
		observation(essential.ID, fixedNow, "4.20"),
		observation(essential.ID, fixedNow.Add(-time.Hour), "4.10"),
	}

	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("ListByEssential", ctx, essential.ID).Return(history, nil)

	chart, err := f.service.GetChart(ctx, essential.ID, domain.ChartTypeLine)

	require.NoError(t, err)
	assert.Equal(t, domain.ChartTypeLine, chart.Type)
	require.Len(t, chart.Line, 2)
	assert.Equal(t, fixedNow.Add(-time.Hour), chart.Line[0].Time)
	assert.Empty(t, chart.Candles)
}

func TestGetChart_CandlesComputedThenCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	essential := eggs()
	history := []domain.Observation{
		observation(essential.ID, time.Date(2025, time.June, 9, 8, 0, 0, 0, time.UTC), "4.00"),
		observation(essential.ID, time.Date(2025, time.June, 12, 8, 0, 0, 0, time.UTC), "4.40"),
		observation(essential.ID, time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC), "4.20"),
	}

	f.cache.On("GetCandles", ctx, essential.ID).Return(nil, false)
	f.essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	f.observationRepo.On("ListByEssential", ctx, essential.ID).Return(history, nil)
	f.cache.On("SetCandles", ctx, essential.ID, mock.MatchedBy(func(c []domain.Candle) bool { return len(c) == 1 })).Return()

	chart, err := f.service.GetChart(ctx, essential.ID, domain.ChartTypeCandlestick)

	require.NoError(t, err)
	require.Len(t, chart.Candles, 1)
	candle := chart.Candles[0]
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), candle.PeriodStart)
	assert.Equal(t, "4.00", candle.Open.StringFixed(2))
	assert.Equal(t, "4.40", candle.High.StringFixed(2))
	assert.Equal(t, "4.00", candle.Low.StringFixed(2))
	assert.Equal(t, "4.20", candle.Close.StringFixed(2))
	f.cache.AssertExpectations(t)
}

func TestGetChart_CandlesFromCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	cached := []domain.Candle{{PeriodStart: fixedNow, Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1)}}
	f.cache.On("GetCandles", ctx, id).Return(cached, true)

	chart, err := f.service.GetChart(ctx, id, domain.ChartTypeCandlestick)

	require.NoError(t, err)
	assert.Equal(t, cached, chart.Candles)
	f.observationRepo.AssertNotCalled(t, "ListByEssential")
}

func TestGetChart_UnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.service.GetChart(context.Background(), uuid.New(), domain.ChartType("area"))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewEssentialService_NilCacheAndLocation(t *testing.T) {
	ctx := context.Background()
	essentialRepo := new(mocks.EssentialRepository)
	observationRepo := new(mocks.ObservationRepository)

	service := NewEssentialService(essentialRepo, observationRepo, nil, nil, 0)
	service.Now = func() time.Time { return fixedNow }

	essential := eggs()
	essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	observationRepo.On("ListByEssential", ctx, essential.ID).Return([]domain.Observation{
		observation(essential.ID, fixedNow.Add(-time.Hour), "2.00"),
		observation(essential.ID, fixedNow, "3.00"),
	}, nil)

	result, err := service.GetStats(ctx, essential.ID)
	require.NoError(t, err)
	assert.True(t, result.IsPresent())
	assert.Equal(t, time.UTC, service.ChartLocation)
}

// memCache is a ChartCache that keeps entries in memory without expiry
type memCache struct {
	mu      sync.Mutex
	stats   map[uuid.UUID]domain.WindowedStats
	candles map[uuid.UUID][]domain.Candle
}

func newMemCache() *memCache {
	return &memCache{
		stats:   make(map[uuid.UUID]domain.WindowedStats),
		candles: make(map[uuid.UUID][]domain.Candle),
	}
}

func (c *memCache) GetStats(_ context.Context, id uuid.UUID) (*domain.WindowedStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.stats[id]
	if !ok {
		return nil, false
	}
	return &stats, true
}

func (c *memCache) SetStats(_ context.Context, id uuid.UUID, stats *domain.WindowedStats, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[id] = *stats
}

func (c *memCache) GetCandles(_ context.Context, id uuid.UUID) ([]domain.Candle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	candles, ok := c.candles[id]
	return candles, ok
}

func (c *memCache) SetCandles(_ context.Context, id uuid.UUID, candles []domain.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candles[id] = candles
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, id)
	delete(c.candles, id)
	return nil
}

// racingFixture returns a service whose first history read records a new 9.00 price
// after its snapshot was taken, the way a concurrent AddPrice would
func racingFixture(t *testing.T) (*EssentialService, *memCache, *domain.Essential) {
	t.Helper()
	ctx := context.Background()

	essentialRepo := new(mocks.EssentialRepository)
	observationRepo := new(mocks.ObservationRepository)
	cache := newMemCache()

	service := NewEssentialService(essentialRepo, observationRepo, cache, time.UTC, time.Minute)
	service.Now = func() time.Time { return fixedNow }

	essential := eggs()
	before := observation(essential.ID, fixedNow.Add(-time.Hour), "3.00")
	after := observation(essential.ID, fixedNow, "9.00")

	essentialRepo.On("GetByID", ctx, essential.ID).Return(essential, nil)
	observationRepo.On("Add", ctx, mock.AnythingOfType("*domain.Observation")).Return(nil)

	observationRepo.On("ListByEssential", ctx, essential.ID).
		Return([]domain.Observation{before}, nil).
		Once().
		Run(func(mock.Arguments) {
			_, err := service.AddPrice(ctx, AddPriceInput{
				EssentialID: essential.ID,
				Price:       decimal.RequireFromString("9.00"),
			})
			require.NoError(t, err)
		})
	observationRepo.On("ListByEssential", ctx, essential.ID).
		Return([]domain.Observation{before, after}, nil)

	return service, cache, essential
}

func TestGetChart_PriceAddedDuringReadIsNotHiddenByCache(t *testing.T) {
	ctx := context.Background()
	service, cache, essential := racingFixture(t)

	_, err := service.GetChart(ctx, essential.ID, domain.ChartTypeCandlestick)
	require.NoError(t, err)

	_, cached := cache.GetCandles(ctx, essential.ID)
	assert.False(t, cached, "candles built from the older snapshot must not stay cached")

	chart, err := service.GetChart(ctx, essential.ID, domain.ChartTypeCandlestick)
	require.NoError(t, err)
	require.Len(t, chart.Candles, 1)
	assert.Equal(t, "9.00", chart.Candles[0].Close.StringFixed(2))
	assert.Equal(t, "9.00", chart.Candles[0].High.StringFixed(2))

	// Without further writes the fresh series stays cached
	_, cached = cache.GetCandles(ctx, essential.ID)
	assert.True(t, cached)
}

func TestGetStats_PriceAddedDuringReadIsNotHiddenByCache(t *testing.T) {
	ctx := context.Background()
	service, cache, essential := racingFixture(t)

	_, err := service.GetStats(ctx, essential.ID)
	require.NoError(t, err)

	_, cached := cache.GetStats(ctx, essential.ID)
	assert.False(t, cached, "stats built from the older snapshot must not stay cached")

	result, err := service.GetStats(ctx, essential.ID)
	require.NoError(t, err)
	stats, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, "9.00", stats.CurrentPrice.StringFixed(2))

	_, cached = cache.GetStats(ctx, essential.ID)
	assert.True(t, cached)
}
