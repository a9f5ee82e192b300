package store

import (
	"context"
	"errors"

	"committrack/internal/model"
)

// ErrNotFound is returned when the requested GoalID does not exist.
var ErrNotFound = errors.New("goal not found")

// Fields is a partial update, keyed by the model.Attr* constants.
type Fields map[string]any

// GoalStore is the persistence contract for goals. ListAll is a logical full
// scan: drivers may page internally but callers see one flat snapshot-per-scan.
// UpdateFields must be atomic per record and must leave unnamed attributes
// untouched, so writers to disjoint field sets never clobber each other.
type GoalStore interface {
	ListAll(ctx context.Context) ([]model.Goal, error)
	Get(ctx context.Context, goalID string) (*model.Goal, error)
	Put(ctx context.Context, goal *model.Goal) error
	UpdateFields(ctx context.Context, goalID string, fields Fields) error
	Delete(ctx context.Context, goalID string) error
	QueryByUser(ctx context.Context, userID string) ([]model.Goal, error)
}
