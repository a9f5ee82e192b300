package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"committrack/internal/generator"
	"committrack/internal/model"
	"committrack/internal/store"
	"committrack/internal/store/memory"
	"committrack/pkg/circuitbreaker"
)

type stubGenerator struct {
	mu        sync.Mutex
	message   string
	dynamic   bool
	calls     int
	failNames map[string]bool
	inputs    []generator.Input

	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (s *stubGenerator) Generate(_ context.Context, in generator.Input) (string, error) {
	if s.started != nil {
		s.startOnce.Do(func() { close(s.started) })
	}
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.inputs = append(s.inputs, in)

	if s.failNames[in.GoalName] {
		return "", &generator.GenerationError{Cause: errors.New("quota exceeded")}
	}
	if s.dynamic {
		return fmt.Sprintf("message-%d", s.calls), nil
	}
	return s.message, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return nil
}

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == routingKey {
			n++
		}
	}
	return n
}

// deleteBeforeUpdateStore deletes the target goal right before its
// enrichment write lands, simulating a CRUD delete racing the job.
type deleteBeforeUpdateStore struct {
	*memory.Store
	target string
	once   sync.Once
}

func (s *deleteBeforeUpdateStore) UpdateFields(ctx context.Context, goalID string, fields store.Fields) error {
	if goalID == s.target {
		s.once.Do(func() {
			_ = s.Store.Delete(ctx, goalID)
		})
	}
	return s.Store.UpdateFields(ctx, goalID, fields)
}

type failingListStore struct {
	*memory.Store
}

func (s *failingListStore) ListAll(context.Context) ([]model.Goal, error) {
	return nil, errors.New("table unavailable")
}

// flakyUpdateStore fails the first failures UpdateFields calls.
type flakyUpdateStore struct {
	*memory.Store
	mu       sync.Mutex
	failures int
	attempts int
}

func (s *flakyUpdateStore) UpdateFields(ctx context.Context, goalID string, fields store.Fields) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()

	if fail {
		return errors.New("transient write failure")
	}
	return s.Store.UpdateFields(ctx, goalID, fields)
}

func seedGoal(t *testing.T, st store.GoalStore, goalID, userID, name string) model.Goal {
	t.Helper()
	g := model.Goal{
		GoalID:    goalID,
		UserID:    userID,
		GoalName:  name,
		Status:    model.StatusActive,
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
	require.NoError(t, st.Put(context.Background(), &g))
	return g
}

func newTestRunner(st store.GoalStore, gen generator.Generator, pub Publisher, cfg Config) *Runner {
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	return NewRunner(st, gen, pub, nil, zap.NewNop(), cfg)
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should enrich every goal end to end", func(t *testing.T) {
		st := memory.New()
		for i := 1; i <= 3; i++ {
			seedGoal(t, st, fmt.Sprintf("goal-%d", i), "user-1", fmt.Sprintf("Goal %d", i))
		}
		gen := &stubGenerator{message: "Keep going!"}
		pub := &recordingPublisher{}
		runner := newTestRunner(st, gen, pub, Config{Concurrency: 2})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, Summary{Status: "success", ProcessedCount: 3, TotalCount: 3}, summary)

		for i := 1; i <= 3; i++ {
			g, err := st.Get(ctx, fmt.Sprintf("goal-%d", i))
			require.NoError(t, err)
			assert.Equal(t, "Keep going!", g.MotivationalMessage)
			assert.NotEmpty(t, g.LastEncouragementDate)
		}

		assert.Equal(t, 3, pub.count("goal.enriched"))
		assert.Equal(t, 1, pub.count("enrichment.completed"))
	})

	t.Run("Should isolate a failing goal", func(t *testing.T) {
		st := memory.New()
		for i := 1; i <= 4; i++ {
			seedGoal(t, st, fmt.Sprintf("goal-%d", i), "user-1", fmt.Sprintf("Goal %d", i))
		}
		before, err := st.Get(ctx, "goal-3")
		require.NoError(t, err)

		gen := &stubGenerator{message: "Keep going!", failNames: map[string]bool{"Goal 3": true}}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.ProcessedCount)
		assert.Equal(t, 4, summary.TotalCount)

		after, err := st.Get(ctx, "goal-3")
		require.NoError(t, err)
		assert.Equal(t, *before, *after)
	})

	t.Run("Should substitute defaults for absent fields", func(t *testing.T) {
		st := memory.New()
		g := model.Goal{
			GoalID:    "goal-sparse",
			UserID:    "user-1",
			GoalName:  "Learn Go",
			CreatedAt: "2026-01-01T00:00:00Z",
			UpdatedAt: "2026-01-01T00:00:00Z",
		}
		require.NoError(t, st.Put(ctx, &g))

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ProcessedCount)

		require.Len(t, gen.inputs, 1)
		assert.Equal(t, "Learn Go", gen.inputs[0].GoalName)
		assert.Equal(t, "Not set", gen.inputs[0].TargetDate)
		assert.Equal(t, "No details", gen.inputs[0].ProgressDetails)
	})

	t.Run("Should use Unknown for a missing goal name", func(t *testing.T) {
		st := memory.New()
		g := model.Goal{GoalID: "goal-anon", UserID: "user-1"}
		require.NoError(t, st.Put(ctx, &g))

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		_, err := runner.Run(ctx)
		require.NoError(t, err)
		require.Len(t, gen.inputs, 1)
		assert.Equal(t, "Unknown", gen.inputs[0].GoalName)
	})

	t.Run("Should be idempotent across consecutive runs", func(t *testing.T) {
		st := memory.New()
		seedGoal(t, st, "goal-1", "user-1", "Goal 1")
		seedGoal(t, st, "goal-2", "user-1", "Goal 2")

		gen := &stubGenerator{dynamic: true}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		first, err := runner.Run(ctx)
		require.NoError(t, err)
		firstGoal, err := st.Get(ctx, "goal-1")
		require.NoError(t, err)

		second, err := runner.Run(ctx)
		require.NoError(t, err)
		secondGoal, err := st.Get(ctx, "goal-1")
		require.NoError(t, err)

		assert.Equal(t, first.ProcessedCount, second.ProcessedCount)
		assert.NotEqual(t, firstGoal.MotivationalMessage, secondGoal.MotivationalMessage)

		// every field except the two enrichment fields is untouched
		firstGoal.MotivationalMessage = ""
		firstGoal.LastEncouragementDate = ""
		secondGoal.MotivationalMessage = ""
		secondGoal.LastEncouragementDate = ""
		assert.Equal(t, *firstGoal, *secondGoal)
	})

	t.Run("Should preserve a CRUD edit made before the run", func(t *testing.T) {
		st := memory.New()
		seedGoal(t, st, "goal-1", "user-1", "Goal 1")

		require.NoError(t, st.UpdateFields(ctx, "goal-1", store.Fields{
			model.AttrStatus: model.StatusPaused,
		}))

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		_, err := runner.Run(ctx)
		require.NoError(t, err)

		g, err := st.Get(ctx, "goal-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPaused, g.Status)
		assert.Equal(t, "Keep going!", g.MotivationalMessage)
	})

	t.Run("Should skip a goal deleted after the scan", func(t *testing.T) {
		mem := memory.New()
		seedGoal(t, mem, "goal-1", "user-1", "Goal 1")
		seedGoal(t, mem, "goal-2", "user-1", "Goal 2")
		st := &deleteBeforeUpdateStore{Store: mem, target: "goal-2"}

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ProcessedCount)
		assert.Equal(t, 2, summary.TotalCount)

		_, err = mem.Get(ctx, "goal-2")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Should retry a transient write before giving up", func(t *testing.T) {
		mem := memory.New()
		seedGoal(t, mem, "goal-1", "user-1", "Goal 1")
		st := &flakyUpdateStore{Store: mem, failures: 2}

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1, UpdateRetries: 3})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ProcessedCount)
		assert.Equal(t, 3, st.attempts)
	})

	t.Run("Should skip the goal once write retries are exhausted", func(t *testing.T) {
		mem := memory.New()
		seedGoal(t, mem, "goal-1", "user-1", "Goal 1")
		st := &flakyUpdateStore{Store: mem, failures: 10}

		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1, UpdateRetries: 3})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.ProcessedCount)
		assert.Equal(t, 1, summary.TotalCount)
		assert.Equal(t, 3, st.attempts)

		g, err := mem.Get(ctx, "goal-1")
		require.NoError(t, err)
		assert.Empty(t, g.MotivationalMessage)
	})

	t.Run("Should fail the run when the scan fails", func(t *testing.T) {
		st := &failingListStore{Store: memory.New()}
		gen := &stubGenerator{message: "Keep going!"}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		_, err := runner.Run(ctx)
		require.Error(t, err)
	})

	t.Run("Should report success with zero processed when the breaker is open", func(t *testing.T) {
		st := memory.New()
		for i := 1; i <= 3; i++ {
			seedGoal(t, st, fmt.Sprintf("goal-%d", i), "user-1", fmt.Sprintf("Goal %d", i))
		}
		gen := &stubGenerator{failNames: map[string]bool{
			"Goal 1": true, "Goal 2": true, "Goal 3": true,
		}}
		runner := newTestRunner(st, gen, nil, Config{
			Concurrency: 1,
			Breaker: circuitbreaker.Config{
				FailureThreshold:    1,
				SuccessThreshold:    1,
				Timeout:             time.Minute,
				HalfOpenMaxRequests: 1,
			},
		})

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.ProcessedCount)
		assert.Equal(t, 3, summary.TotalCount)
		// breaker opened after the first failure, later goals never hit the generator
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("Should reject an overlapping run", func(t *testing.T) {
		st := memory.New()
		seedGoal(t, st, "goal-1", "user-1", "Goal 1")

		gen := &stubGenerator{
			message: "Keep going!",
			block:   make(chan struct{}),
			started: make(chan struct{}),
		}
		runner := newTestRunner(st, gen, nil, Config{Concurrency: 1})

		done := make(chan Summary, 1)
		go func() {
			summary, err := runner.Run(ctx)
			assert.NoError(t, err)
			done <- summary
		}()

		<-gen.started
		_, err := runner.Run(ctx)
		assert.ErrorIs(t, err, ErrRunInProgress)

		close(gen.block)
		summary := <-done
		assert.Equal(t, 1, summary.ProcessedCount)
	})
}
