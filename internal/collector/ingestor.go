package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/usecase/essential"
)

const (
	GasolineName     = "Regular Gasoline"
	GasolineCategory = "Fuel"
	GasolineUnit     = "per gallon"
	GasolineIcon     = "⛽"

	NationalAverageLocation = "US National Average"

	latestNotes  = "Data from EIA (Energy Information Administration)"
	historyNotes = "Historical data from EIA (Energy Information Administration)"

	// RecentThreshold is how fresh the newest stored price must be to skip a fetch
	RecentThreshold = 6 * 24 * time.Hour
)

// GasPriceSource supplies weekly gasoline prices
type GasPriceSource interface {
	FetchLatest(ctx context.Context) (GasPrice, error)
	FetchSince(ctx context.Context, start time.Time) ([]GasPrice, error)
}

// PriceRecorder creates essentials and records prices with validation and cache invalidation.
// *essential.EssentialService satisfies it
type PriceRecorder interface {
	Create(ctx context.Context, input essential.CreateEssentialInput) (*domain.Essential, error)
	AddPrice(ctx context.Context, input essential.AddPriceInput) (*domain.Observation, error)
}

// GasPriceIngestor stores EIA gasoline prices as observations of the gasoline essential
type GasPriceIngestor struct {
	log             *slog.Logger
	source          GasPriceSource
	recorder        PriceRecorder
	essentialRepo   domain.EssentialRepository
	observationRepo domain.ObservationRepository

	Now func() time.Time
}

// NewGasPriceIngestor creates a new GasPriceIngestor instance
func NewGasPriceIngestor(
	log *slog.Logger,
	source GasPriceSource,
	recorder PriceRecorder,
	essentialRepo domain.EssentialRepository,
	observationRepo domain.ObservationRepository,
) *GasPriceIngestor {
	return &GasPriceIngestor{
		log:             log,
		source:          source,
		recorder:        recorder,
		essentialRepo:   essentialRepo,
		observationRepo: observationRepo,
		Now:             time.Now,
	}
}

// IngestLatest records the latest weekly price unless a recent one is already stored
// It reports whether a price was added
func (g *GasPriceIngestor) IngestLatest(ctx context.Context) (bool, error) {
	const op = "collector.IngestLatest"

	log := g.log.With(slog.String("op", op))

	gasoline, err := g.ensureGasoline(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	newest, err := g.observationRepo.GetLatest(ctx, gasoline.ID)
	switch {
	case err == nil:
		if age := g.Now().Sub(newest.Timestamp); age < RecentThreshold {
			log.Info("skipping fetch, recent price already stored", slog.Duration("age", age))
			return false, nil
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}

	latest, err := g.source.FetchLatest(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	// The source publishes weekly; an unchanged period means nothing new yet
	if newest != nil && sameDay(newest.Timestamp, latest.Period) {
		log.Info("latest period already stored", slog.String("period", latest.Period.Format(periodLayout)))
		return false, nil
	}

	if err := g.record(ctx, gasoline.ID, latest, latestNotes); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gas price added",
		slog.String("period", latest.Period.Format(periodLayout)),
		slog.String("price", latest.Price.StringFixed(domain.PricePrecision)),
	)

	return true, nil
}

// IngestHistory backfills weekly prices from since on, skipping days already stored
// It returns the number of prices added
func (g *GasPriceIngestor) IngestHistory(ctx context.Context, since time.Time) (int, error) {
	const op = "collector.IngestHistory"

	log := g.log.With(slog.String("op", op))

	gasoline, err := g.ensureGasoline(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	prices, err := g.source.FetchSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := g.observationRepo.ListByEssential(ctx, gasoline.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	existing := make(map[string]struct{}, len(stored))
	for _, obs := range stored {
		existing[dayKey(obs.Timestamp)] = struct{}{}
	}

	added := 0
	for _, price := range prices {
		if _, ok := existing[dayKey(price.Period)]; ok {
			continue
		}
		if err := g.record(ctx, gasoline.ID, price, historyNotes); err != nil {
			return added, fmt.Errorf("%s: %w", op, err)
		}
		existing[dayKey(price.Period)] = struct{}{}
		added++
	}

	log.Info("history ingested",
		slog.Int("received", len(prices)),
		slog.Int("already_stored", len(prices)-added),
		slog.Int("added", added),
	)

	return added, nil
}

func (g *GasPriceIngestor) ensureGasoline(ctx context.Context) (*domain.Essential, error) {
	gasoline, err := g.essentialRepo.GetByName(ctx, GasolineName)
	if err == nil {
		return gasoline, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	g.log.Info("creating gasoline essential", slog.String("name", GasolineName))

	return g.recorder.Create(ctx, essential.CreateEssentialInput{
		Name:     GasolineName,
		Category: GasolineCategory,
		Unit:     GasolineUnit,
		Icon:     GasolineIcon,
	})
}

func (g *GasPriceIngestor) record(ctx context.Context, essentialID uuid.UUID, price GasPrice, notes string) error {
	location := NationalAverageLocation
	period := price.Period

	_, err := g.recorder.AddPrice(ctx, essential.AddPriceInput{
		EssentialID: essentialID,
		Price:       price.Price,
		Location:    &location,
		Notes:       &notes,
		ObservedAt:  &period,
	})
	return err
}

func dayKey(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

func sameDay(a, b time.Time) bool {
	return dayKey(a) == dayKey(b)
}
