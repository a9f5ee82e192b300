package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"committrack/internal/service/enrich"
)

// Config holds the trigger settings. Cron is a standard 5-field expression
// evaluated in UTC; the default cadence is daily at 08:00 UTC.
type Config struct {
	Enabled           bool   `yaml:"enabled"`
	Cron              string `yaml:"cron"`
	RunTimeoutSeconds int    `yaml:"run_timeout_seconds"`
}

// Runner is the job the scheduler fires on each tick.
type Runner interface {
	Run(ctx context.Context) (enrich.Summary, error)
}

// Scheduler triggers the enrichment job on a fixed cadence.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	logger     *zap.Logger
	spec       string
	runTimeout time.Duration
}

func New(runner Runner, logger *zap.Logger, cfg Config) *Scheduler {
	timeout := time.Duration(cfg.RunTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		runner:     runner,
		logger:     logger,
		spec:       cfg.Cron,
		runTimeout: timeout,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("cron", s.spec))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	summary, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, enrich.ErrRunInProgress) {
			s.logger.Info("Previous enrichment run still in flight, skipping tick")
			return
		}
		s.logger.Error("Scheduled enrichment run failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled enrichment run completed",
		zap.Int("processed_count", summary.ProcessedCount),
		zap.Int("total_count", summary.TotalCount),
	)
}
