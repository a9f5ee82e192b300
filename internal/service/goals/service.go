package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"committrack/internal/model"
	"committrack/internal/store"
)

// ValidationError marks a required field missing on create or update. It is
// raised before any write and is safe to show to the user.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Input is the user-editable field set. MotivationalMessage and
// LastEncouragementDate are deliberately absent: only the enrichment job
// writes those.
type Input struct {
	UserID             string `json:"user_id"`
	GoalName           string `json:"goal_name"`
	GoalCategory       string `json:"goal_category"`
	GoalDescription    string `json:"goal_description"`
	TargetDate         string `json:"target_date"`
	StartDate          string `json:"start_date"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	ProgressPercentage int    `json:"progress_percentage"`
	ProgressDetails    string `json:"progress_details"`
	Milestones         string `json:"milestones"`
	Obstacles          string `json:"obstacles"`
	SuccessCriteria    string `json:"success_criteria"`
}

// Service implements goal CRUD over the store. It owns GoalID assignment and
// the CreatedAt/UpdatedAt timestamps.
type Service struct {
	store  store.GoalStore
	logger *zap.Logger
}

func NewService(st store.GoalStore, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

func validate(in Input) error {
	if strings.TrimSpace(in.UserID) == "" {
		return &ValidationError{Field: "user_id"}
	}
	if strings.TrimSpace(in.GoalName) == "" {
		return &ValidationError{Field: "goal_name"}
	}
	return nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Create assigns a fresh GoalID, stamps both timestamps and writes the full
// record. Status and StartDate fall back to the same defaults the entry form
// always used.
func (s *Service) Create(ctx context.Context, in Input) (*model.Goal, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := nowISO()
	g := &model.Goal{
		GoalID:             uuid.NewString(),
		UserID:             in.UserID,
		GoalName:           in.GoalName,
		GoalCategory:       in.GoalCategory,
		GoalDescription:    in.GoalDescription,
		TargetDate:         in.TargetDate,
		StartDate:          in.StartDate,
		Priority:           in.Priority,
		Status:             in.Status,
		ProgressPercentage: in.ProgressPercentage,
		ProgressDetails:    in.ProgressDetails,
		Milestones:         in.Milestones,
		Obstacles:          in.Obstacles,
		SuccessCriteria:    in.SuccessCriteria,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if g.Status == "" {
		g.Status = model.StatusActive
	}
	if g.StartDate == "" {
		g.StartDate = time.Now().UTC().Format("2006-01-02")
	}

	if err := s.store.Put(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.logger.Info("Goal created",
		zap.String("goal_id", g.GoalID),
		zap.String("user_id", g.UserID),
	)
	return g, nil
}

func (s *Service) Get(ctx context.Context, goalID string) (*model.Goal, error) {
	return s.store.Get(ctx, goalID)
}

func (s *Service) List(ctx context.Context) ([]model.Goal, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	return s.store.QueryByUser(ctx, userID)
}

// Update writes the full user-editable field set in one atomic field-level
// update and refreshes UpdatedAt. It never touches the enrichment fields.
func (s *Service) Update(ctx context.Context, goalID string, in Input) (*model.Goal, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	fields := store.Fields{
		model.AttrUserID:             in.UserID,
		model.AttrGoalName:           in.GoalName,
		model.AttrGoalCategory:       in.GoalCategory,
		model.AttrGoalDescription:    in.GoalDescription,
		model.AttrTargetDate:         in.TargetDate,
		model.AttrStartDate:          in.StartDate,
		model.AttrPriority:           in.Priority,
		model.AttrStatus:             in.Status,
		model.AttrProgressPercentage: in.ProgressPercentage,
		model.AttrProgressDetails:    in.ProgressDetails,
		model.AttrMilestones:         in.Milestones,
		model.AttrObstacles:          in.Obstacles,
		model.AttrSuccessCriteria:    in.SuccessCriteria,
		model.AttrUpdatedAt:          nowISO(),
	}

	if err := s.store.UpdateFields(ctx, goalID, fields); err != nil {
		return nil, err
	}

	s.logger.Info("Goal updated", zap.String("goal_id", goalID))
	return s.store.Get(ctx, goalID)
}

func (s *Service) Delete(ctx context.Context, goalID string) error {
	if err := s.store.Delete(ctx, goalID); err != nil {
		return err
	}
	s.logger.Info("Goal deleted", zap.String("goal_id", goalID))
	return nil
}
