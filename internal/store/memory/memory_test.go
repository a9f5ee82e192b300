package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"committrack/internal/model"
	"committrack/internal/store"
)

func seed(t *testing.T, s *Store, goalID, userID string) model.Goal {
	t.Helper()
	g := model.Goal{
		GoalID:    goalID,
		UserID:    userID,
		GoalName:  "Goal " + goalID,
		Status:    model.StatusActive,
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
	require.NoError(t, s.Put(context.Background(), &g))
	return g
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip a goal", func(t *testing.T) {
		s := New()
		g := seed(t, s, "g1", "u1")

		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, g, *got)
	})

	t.Run("Should return not found for missing keys", func(t *testing.T) {
		s := New()

		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "missing"), store.ErrNotFound)
		assert.ErrorIs(t, s.UpdateFields(ctx, "missing", store.Fields{model.AttrStatus: "x"}), store.ErrNotFound)
	})

	t.Run("Should update only the named fields", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")

		err := s.UpdateFields(ctx, "g1", store.Fields{
			model.AttrMotivationalMessage:   "Keep going!",
			model.AttrLastEncouragementDate: "2026-08-30T08:00:00Z",
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "Keep going!", got.MotivationalMessage)
		assert.Equal(t, "2026-08-30T08:00:00Z", got.LastEncouragementDate)
		assert.Equal(t, "Goal g1", got.GoalName)
		assert.Equal(t, model.StatusActive, got.Status)
	})

	t.Run("Should apply progress percentage as int", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")

		require.NoError(t, s.UpdateFields(ctx, "g1", store.Fields{model.AttrProgressPercentage: 40}))
		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, 40, got.ProgressPercentage)
	})

	t.Run("Should reject unknown or immutable attributes without partial writes", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")

		err := s.UpdateFields(ctx, "g1", store.Fields{
			model.AttrStatus: model.StatusPaused,
			model.AttrGoalID: "g2",
		})
		require.Error(t, err)

		// the valid field must not have landed either
		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, got.Status)
	})

	t.Run("Should not share memory with callers", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")

		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		got.GoalName = "mutated"

		again, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "Goal g1", again.GoalName)
	})

	t.Run("Should query by user", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")
		seed(t, s, "g2", "u1")
		seed(t, s, "g3", "u2")

		goals, err := s.QueryByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, goals, 2)

		empty, err := s.QueryByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Should list everything", func(t *testing.T) {
		s := New()
		seed(t, s, "g1", "u1")
		seed(t, s, "g2", "u2")

		goals, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, goals, 2)
	})
}
