package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"committrack/internal/generator"
	"committrack/internal/model"
	"committrack/internal/store"
	"committrack/pkg/circuitbreaker"
	"committrack/pkg/lock"
	"committrack/pkg/metrics"
)

// ErrRunInProgress is returned when a run is requested while a previous one
// still holds the guard. The scheduler treats it as a skipped tick.
var ErrRunInProgress = errors.New("enrichment run already in progress")

// Defaults substituted for absent descriptive fields; a sparse goal still gets
// a message.
const (
	defaultGoalName        = "Unknown"
	defaultTargetDate      = "Not set"
	defaultProgressDetails = "No details"
)

// Summary reports one run. ProcessedCount counts goals whose generate and
// write both succeeded; skipped goals only show up in the gap to TotalCount.
type Summary struct {
	Status         string `json:"status"`
	ProcessedCount int    `json:"processed_count"`
	TotalCount     int    `json:"total_count"`
}

// Publisher is the slice of pkg/mq the runner needs. A nil Publisher disables
// event publishing.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Config struct {
	// Concurrent generate+update workers; 1 means sequential.
	Concurrency int
	// Attempts for a failed store write before the goal is skipped.
	UpdateRetries int
	// Delay between store write attempts.
	RetryBackoff time.Duration
	Breaker      circuitbreaker.Config
}

// Runner is the enrichment job: scan all goals, generate a motivational
// message per goal and write it back with a field-level update. Per-goal
// failures are isolated; only a failed scan fails the run.
type Runner struct {
	store     store.GoalStore
	gen       generator.Generator
	breaker   *circuitbreaker.CircuitBreaker
	publisher Publisher
	lease     *lock.Lease
	logger    *zap.Logger

	concurrency   int
	updateRetries int
	retryBackoff  time.Duration

	running atomic.Bool
}

func NewRunner(st store.GoalStore, gen generator.Generator, publisher Publisher, lease *lock.Lease, logger *zap.Logger, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.UpdateRetries <= 0 {
		cfg.UpdateRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker = circuitbreaker.DefaultConfig()
	}

	return &Runner{
		store:         st,
		gen:           gen,
		breaker:       circuitbreaker.NewCircuitBreaker(cfg.Breaker),
		publisher:     publisher,
		lease:         lease,
		logger:        logger,
		concurrency:   cfg.Concurrency,
		updateRetries: cfg.UpdateRetries,
		retryBackoff:  cfg.RetryBackoff,
	}
}

// Run executes one enrichment pass over a snapshot of the store. Goals created
// after the scan are picked up next cycle; goals deleted mid-run are skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer r.running.Store(false)

	if r.lease != nil {
		ok, err := r.lease.Acquire(ctx)
		if err != nil {
			r.logger.Warn("Run lock unavailable, proceeding unguarded", zap.Error(err))
		} else if !ok {
			metrics.EnrichmentRuns.WithLabelValues("skipped").Inc()
			return Summary{}, ErrRunInProgress
		} else {
			defer func() {
				if err := r.lease.Release(context.Background()); err != nil {
					r.logger.Warn("Failed to release run lock", zap.Error(err))
				}
			}()
		}
	}

	goals, err := r.store.ListAll(ctx)
	if err != nil {
		r.logger.Error("Failed to list goals", zap.Error(err))
		metrics.EnrichmentRuns.WithLabelValues("failed").Inc()
		return Summary{}, fmt.Errorf("list goals: %w", err)
	}

	r.logger.Info("Starting enrichment run",
		zap.Int("total_goals", len(goals)),
		zap.Int("concurrency", r.concurrency),
	)

	var processed atomic.Int64

	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, goal := range goals {
		g.Go(func() error {
			r.enrichGoal(runCtx, goal, &processed)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{
		Status:         "success",
		ProcessedCount: int(processed.Load()),
		TotalCount:     len(goals),
	}

	r.logger.Info("Enrichment run completed",
		zap.Int("processed_count", summary.ProcessedCount),
		zap.Int("total_count", summary.TotalCount),
	)
	metrics.EnrichmentRuns.WithLabelValues("success").Inc()

	if r.publisher != nil {
		if err := r.publisher.Publish("enrichment.completed", summary); err != nil {
			r.logger.Warn("Failed to publish enrichment.completed event", zap.Error(err))
		}
	}

	return summary, nil
}

func (r *Runner) enrichGoal(ctx context.Context, goal model.Goal, processed *atomic.Int64) {
	in := generator.Input{
		GoalName:        goal.GoalName,
		TargetDate:      goal.TargetDate,
		ProgressDetails: goal.ProgressDetails,
	}
	if in.GoalName == "" {
		in.GoalName = defaultGoalName
	}
	if in.TargetDate == "" {
		in.TargetDate = defaultTargetDate
	}
	if in.ProgressDetails == "" {
		in.ProgressDetails = defaultProgressDetails
	}

	start := time.Now()
	var message string
	err := r.breaker.Execute(func() error {
		m, genErr := r.gen.Generate(ctx, in)
		if genErr != nil {
			return genErr
		}
		message = m
		return nil
	})
	if err != nil {
		metrics.ObserveGeneration("failure", start)
		metrics.GoalsEnriched.WithLabelValues("skipped_generation").Inc()
		r.logger.Warn("Skipping goal, message generation failed",
			zap.String("goal_id", goal.GoalID),
			zap.Error(err),
		)
		return
	}
	metrics.ObserveGeneration("success", start)

	fields := store.Fields{
		model.AttrMotivationalMessage:   message,
		model.AttrLastEncouragementDate: time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.updateWithRetry(ctx, goal.GoalID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// deleted while the run was in flight
			metrics.GoalsEnriched.WithLabelValues("skipped_deleted").Inc()
			r.logger.Info("Goal deleted during run, skipping",
				zap.String("goal_id", goal.GoalID),
			)
			return
		}
		metrics.GoalsEnriched.WithLabelValues("skipped_store").Inc()
		r.logger.Error("Failed to persist motivational message",
			zap.String("goal_id", goal.GoalID),
			zap.Error(err),
		)
		return
	}

	processed.Add(1)
	metrics.GoalsEnriched.WithLabelValues("processed").Inc()

	if r.publisher != nil {
		payload := map[string]any{
			"goal_id": goal.GoalID,
			"user_id": goal.UserID,
		}
		if err := r.publisher.Publish("goal.enriched", payload); err != nil {
			r.logger.Warn("Failed to publish goal.enriched event",
				zap.String("goal_id", goal.GoalID),
				zap.Error(err),
			)
		}
	}
}

func (r *Runner) updateWithRetry(ctx context.Context, goalID string, fields store.Fields) error {
	var err error
	for attempt := 1; attempt <= r.updateRetries; attempt++ {
		err = r.store.UpdateFields(ctx, goalID, fields)
		if err == nil || errors.Is(err, store.ErrNotFound) {
			return err
		}
		if attempt < r.updateRetries {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(r.retryBackoff):
			}
		}
	}
	return err
}
