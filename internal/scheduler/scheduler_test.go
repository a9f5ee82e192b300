package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"committrack/internal/service/enrich"
)

type stubRunner struct {
	calls   int
	summary enrich.Summary
	err     error

	sawDeadline bool
}

func (r *stubRunner) Run(ctx context.Context) (enrich.Summary, error) {
	r.calls++
	_, r.sawDeadline = ctx.Deadline()
	return r.summary, r.err
}

func TestScheduler(t *testing.T) {
	t.Run("Should reject an invalid cron expression", func(t *testing.T) {
		s := New(&stubRunner{}, zap.NewNop(), Config{Cron: "not a cron"})
		assert.Error(t, s.Start())
	})

	t.Run("Should start and stop with a valid expression", func(t *testing.T) {
		s := New(&stubRunner{}, zap.NewNop(), Config{Cron: "0 8 * * *"})
		require.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("Should bound each run with a deadline", func(t *testing.T) {
		r := &stubRunner{summary: enrich.Summary{Status: "success"}}
		s := New(r, zap.NewNop(), Config{Cron: "0 8 * * *", RunTimeoutSeconds: 60})

		s.tick()
		assert.Equal(t, 1, r.calls)
		assert.True(t, r.sawDeadline)
	})

	t.Run("Should swallow an in-progress skip", func(t *testing.T) {
		r := &stubRunner{err: enrich.ErrRunInProgress}
		s := New(r, zap.NewNop(), Config{Cron: "0 8 * * *"})

		s.tick()
		assert.Equal(t, 1, r.calls)
	})

	t.Run("Should log and continue on a failed run", func(t *testing.T) {
		r := &stubRunner{err: errors.New("table unavailable")}
		s := New(r, zap.NewNop(), Config{Cron: "0 8 * * *"})

		s.tick()
		assert.Equal(t, 1, r.calls)
	})
}
