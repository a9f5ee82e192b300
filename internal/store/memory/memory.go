package memory

import (
	"context"
	"fmt"
	"sync"

	"committrack/internal/model"
	"committrack/internal/store"
)

// Store is an in-memory GoalStore used by tests and the `memory` driver for
// local development. Records are copied in and out, so callers never share
// memory with the store.
type Store struct {
	mu    sync.RWMutex
	goals map[string]model.Goal
}

func New() *Store {
	return &Store{goals: make(map[string]model.Goal)}
}

func (s *Store) ListAll(_ context.Context) ([]model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, goalID string) (*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[goalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &g, nil
}

func (s *Store) Put(_ context.Context, goal *model.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals[goal.GoalID] = *goal
	return nil
}

func (s *Store) UpdateFields(_ context.Context, goalID string, fields store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok {
		return store.ErrNotFound
	}

	// apply to a copy first so an unknown attribute leaves the record intact
	updated := g
	if err := apply(&updated, fields); err != nil {
		return err
	}
	s.goals[goalID] = updated
	return nil
}

func (s *Store) Delete(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[goalID]; !ok {
		return store.ErrNotFound
	}
	delete(s.goals, goalID)
	return nil
}

func (s *Store) QueryByUser(_ context.Context, userID string) ([]model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func apply(g *model.Goal, fields store.Fields) error {
	for attr, value := range fields {
		if attr == model.AttrProgressPercentage {
			n, ok := value.(int)
			if !ok {
				return fmt.Errorf("attribute %s: expected int, got %T", attr, value)
			}
			g.ProgressPercentage = n
			continue
		}

		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("attribute %s: expected string, got %T", attr, value)
		}

		switch attr {
		case model.AttrUserID:
			g.UserID = s
		case model.AttrGoalName:
			g.GoalName = s
		case model.AttrGoalCategory:
			g.GoalCategory = s
		case model.AttrGoalDescription:
			g.GoalDescription = s
		case model.AttrTargetDate:
			g.TargetDate = s
		case model.AttrStartDate:
			g.StartDate = s
		case model.AttrPriority:
			g.Priority = s
		case model.AttrStatus:
			g.Status = s
		case model.AttrProgressDetails:
			g.ProgressDetails = s
		case model.AttrMilestones:
			g.Milestones = s
		case model.AttrObstacles:
			g.Obstacles = s
		case model.AttrSuccessCriteria:
			g.SuccessCriteria = s
		case model.AttrMotivationalMessage:
			g.MotivationalMessage = s
		case model.AttrLastEncouragementDate:
			g.LastEncouragementDate = s
		case model.AttrUpdatedAt:
			g.UpdatedAt = s
		default:
			return fmt.Errorf("attribute %s is not updatable", attr)
		}
	}
	return nil
}
