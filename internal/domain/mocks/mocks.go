// Package mocks provides testify mocks of the domain ports for use case and adapter tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/essentialstracker/backend/internal/domain"
)

// EssentialRepository is a mock implementation of domain.EssentialRepository
type EssentialRepository struct {
	mock.Mock
}

func (m *EssentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Essential), args.Error(1)
}

func (m *EssentialRepository) GetByName(ctx context.Context, name string) (*domain.Essential, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Essential), args.Error(1)
}

func (m *EssentialRepository) List(ctx context.Context) ([]*domain.Essential, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Essential), args.Error(1)
}

func (m *EssentialRepository) Create(ctx context.Context, essential *domain.Essential) error {
	args := m.Called(ctx, essential)
	return args.Error(0)
}

func (m *EssentialRepository) Update(ctx context.Context, essential *domain.Essential) error {
	args := m.Called(ctx, essential)
	return args.Error(0)
}

func (m *EssentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ObservationRepository is a mock implementation of domain.ObservationRepository
type ObservationRepository struct {
	mock.Mock
}

func (m *ObservationRepository) Add(ctx context.Context, obs *domain.Observation) error {
	args := m.Called(ctx, obs)
	return args.Error(0)
}

func (m *ObservationRepository) ListByEssential(ctx context.Context, essentialID uuid.UUID) ([]domain.Observation, error) {
	args := m.Called(ctx, essentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}

func (m *ObservationRepository) ListRecent(ctx context.Context, essentialID uuid.UUID, limit int) ([]domain.Observation, error) {
	args := m.Called(ctx, essentialID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}

func (m *ObservationRepository) GetLatest(ctx context.Context, essentialID uuid.UUID) (*domain.Observation, error) {
	args := m.Called(ctx, essentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Observation), args.Error(1)
}

// ChartCache is a mock implementation of domain.ChartCache
type ChartCache struct {
	mock.Mock
}

func (m *ChartCache) GetStats(ctx context.Context, essentialID uuid.UUID) (*domain.WindowedStats, bool) {
	args := m.Called(ctx, essentialID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.WindowedStats), args.Bool(1)
}

func (m *ChartCache) SetStats(ctx context.Context, essentialID uuid.UUID, stats *domain.WindowedStats, ttl time.Duration) {
	m.Called(ctx, essentialID, stats, ttl)
}

func (m *ChartCache) GetCandles(ctx context.Context, essentialID uuid.UUID) ([]domain.Candle, bool) {
	args := m.Called(ctx, essentialID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]domain.Candle), args.Bool(1)
}

func (m *ChartCache) SetCandles(ctx context.Context, essentialID uuid.UUID, candles []domain.Candle) {
	m.Called(ctx, essentialID, candles)
}

func (m *ChartCache) Invalidate(ctx context.Context, essentialID uuid.UUID) error {
	args := m.Called(ctx, essentialID)
	return args.Error(0)
}
