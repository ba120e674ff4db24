package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type FeatureComputer interface {
	ComputeFeatures(ctx context.Context, symbol string) (int, error)
}

type SignalGenerator interface {
	GenerateSignals(ctx context.Context, symbol string) (int, error)
}

type ProfitAggregator interface {
	ComputeDailyProfits(ctx context.Context, day time.Time) (int, error)
	ComputeMonthlySummaries(ctx context.Context, month time.Time) (int, error)
}

// Scheduler runs the configured feature-computation and labeling jobs on
// their cron schedules. All runs execute under the system principal, so
// pipeline mutations show up unattributed in the audit trail.
type Scheduler struct {
	cfg  *config.Config
	cron *cron.Cron

	features FeatureComputer
	labels   SignalGenerator
	profits  ProfitAggregator
}

func NewScheduler(
	cfg *config.Config,
	features FeatureComputer,
	labels SignalGenerator,
	profits ProfitAggregator,
) (*Scheduler, error) {
	s := &Scheduler{
		cfg:  cfg,
		cron: cron.New(),

		features: features,
		labels:   labels,
		profits:  profits,
	}

	for _, job := range cfg.Pipeline.Jobs {
		symbols := job.Symbols
		if _, err := s.cron.AddFunc(job.Schedule, func() {
			s.runJob(symbols)
		}); err != nil {
			return nil, fmt.Errorf("invalid pipeline schedule %q: %w", job.Schedule, err)
		}
	}

	if schedule := cfg.Pipeline.AnalyticsSchedule; schedule != "" {
		if _, err := s.cron.AddFunc(schedule, s.runAnalyticsJob); err != nil {
			return nil, fmt.Errorf("invalid analytics schedule %q: %w", schedule, err)
		}
	}

	return s, nil
}

// Run starts the cron scheduler. The function blocks until the context is
// cancelled, then waits for in-flight jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.cfg.Pipeline.Jobs) == 0 && s.cfg.Pipeline.AnalyticsSchedule == "" {
		slog.Info("no pipeline jobs configured, scheduler stays idle")
		return
	}

	s.cron.Start()
	slog.Info("started pipeline scheduler",
		"jobs", len(s.cfg.Pipeline.Jobs),
		"analytics", s.cfg.Pipeline.AnalyticsSchedule != "")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	slog.Info("pipeline scheduler stopped")
}

func (s *Scheduler) runJob(symbols []string) {
	ctx := domain.SetUserInfo(context.Background(), domain.SystemContextUserInfo())

	for _, symbol := range symbols {
		bars, err := s.features.ComputeFeatures(ctx, symbol)
		if err != nil {
			slog.Warn("pipeline feature computation failed", "symbol", symbol, "error", err)
			continue
		}

		signals, err := s.labels.GenerateSignals(ctx, symbol)
		if err != nil {
			slog.Warn("pipeline labeling failed", "symbol", symbol, "error", err)
			continue
		}

		slog.Debug("pipeline run finished", "symbol", symbol, "featureBars", bars, "newSignals", signals)
	}
}

// runAnalyticsJob aggregates yesterday's fills into daily profit rows and
// refreshes the monthly summary of the month that day belongs to. Zero values
// let the manager pick those defaults.
func (s *Scheduler) runAnalyticsJob() {
	ctx := domain.SetUserInfo(context.Background(), domain.SystemContextUserInfo())

	days, err := s.profits.ComputeDailyProfits(ctx, time.Time{})
	if err != nil {
		slog.Warn("daily profit aggregation failed", "error", err)
		return
	}

	months, err := s.profits.ComputeMonthlySummaries(ctx, time.Time{})
	if err != nil {
		slog.Warn("monthly summary aggregation failed", "error", err)
		return
	}

	slog.Debug("analytics aggregation finished", "dailyRows", days, "monthlyRows", months)
}
