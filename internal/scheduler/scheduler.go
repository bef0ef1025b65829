package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultGasPriceCron runs every Tuesday at 18:00, after EIA's Monday release
const DefaultGasPriceCron = "0 0 18 * * 2"

// GasPriceJob is the ingestion run triggered by the schedule
type GasPriceJob interface {
	IngestLatest(ctx context.Context) (bool, error)
}

// Scheduler manages the periodic collection tasks
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	log *slog.Logger
	job GasPriceJob
}

// NewScheduler creates a new Scheduler; specs carry a seconds field
func NewScheduler(ctx context.Context, log *slog.Logger, job GasPriceJob) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Ctx:  ctx,
		log:  log,
		job:  job,
	}
}

// Register registers the gas price task
func (s *Scheduler) Register(gasPriceCron string) error {
	if gasPriceCron == "" {
		gasPriceCron = DefaultGasPriceCron
	}
	if _, err := s.Cron.AddFunc(gasPriceCron, s.gasPriceTask); err != nil {
		return fmt.Errorf("register gas price task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", slog.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running task to finish
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the gas price task immediately
func (s *Scheduler) RunNow() {
	s.gasPriceTask()
}

func (s *Scheduler) gasPriceTask() {
	const op = "scheduler.gasPriceTask"

	log := s.log.With(slog.String("op", op))

	log.Info("running gas price task")

	added, err := s.job.IngestLatest(s.Ctx)
	if err != nil {
		log.Error("gas price ingestion failed", slog.String("error", err.Error()))
		return
	}

	log.Info("gas price task done", slog.Bool("added", added))
}
