package dashboard

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/usecase/pricestats"
)

// OverviewItem is one row of the dashboard
type OverviewItem struct {
	Essential *domain.Essential
	Stats     domain.Optional[domain.WindowedStats]
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	EssentialRepo   domain.EssentialRepository
	ObservationRepo domain.ObservationRepository

	// Workers bounds how many histories are loaded and computed at once
	Workers int
	Now     func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	essentialRepo domain.EssentialRepository,
	observationRepo domain.ObservationRepository,
	workers int,
) *DashboardService {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &DashboardService{
		EssentialRepo:   essentialRepo,
		ObservationRepo: observationRepo,
		Workers:         workers,
		Now:             time.Now,
	}
}

// Overview computes the windowed statistics of every essential
// Logic:
//   - One clock reading is shared by every item so all rows describe the same instant
//   - Items are fanned out to a bounded pool; each worker reads its own history snapshot
//   - Rows keep catalog order regardless of completion order
//   - The first storage error cancels the remaining work
func (s *DashboardService) Overview(ctx context.Context) ([]OverviewItem, error) {
	essentials, err := s.EssentialRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list essentials: %w", err)
	}

	now := s.Now()
	items := make([]OverviewItem, len(essentials))
	if len(essentials) == 0 {
		return items, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := min(s.Workers, len(essentials))
	if workers <= 0 {
		workers = 1
	}

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				essential := essentials[i]
				observations, err := s.ObservationRepo.ListByEssential(ctx, essential.ID)
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("failed to load price history of %q: %w", essential.Name, err)
						cancel()
					})
					continue
				}
				// Each index is written by exactly one worker
				items[i] = OverviewItem{
					Essential: essential,
					Stats:     pricestats.ComputeStats(observations, now),
				}
			}
		}()
	}

feed:
	for i := range essentials {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
