package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"committrack/internal/model"
	"committrack/internal/store"
	"committrack/pkg/config"
	"committrack/pkg/metrics"
)

const driverName = "postgres"

// columns maps persisted attribute names to table columns. Attributes outside
// this map are rejected by UpdateFields; GoalID and CreatedAt are excluded on
// purpose since neither may change after create.
var columns = map[string]string{
	model.AttrUserID:                "user_id",
	model.AttrGoalName:              "goal_name",
	model.AttrGoalCategory:          "goal_category",
	model.AttrGoalDescription:       "goal_description",
	model.AttrTargetDate:            "target_date",
	model.AttrStartDate:             "start_date",
	model.AttrPriority:              "priority",
	model.AttrStatus:                "status",
	model.AttrProgressPercentage:    "progress_percentage",
	model.AttrProgressDetails:       "progress_details",
	model.AttrMilestones:            "milestones",
	model.AttrObstacles:             "obstacles",
	model.AttrSuccessCriteria:       "success_criteria",
	model.AttrMotivationalMessage:   "motivational_message",
	model.AttrLastEncouragementDate: "last_encouragement_date",
	model.AttrUpdatedAt:             "updated_at",
}

const selectColumns = `goal_id, user_id, goal_name, goal_category, goal_description,
       target_date, start_date, priority, status, progress_percentage,
       progress_details, milestones, obstacles, success_criteria,
       motivational_message, last_encouragement_date, created_at, updated_at`

// Store implements store.GoalStore on a flat goals table; see schema.sql.
type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	logger.Info("Initializing PostgreSQL connection pool",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name),
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = time.Minute

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	defer pingCancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	logger.Info("PostgreSQL connection established successfully")
	return &Store{db: pool}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func scanGoal(row pgx.Row) (*model.Goal, error) {
	var g model.Goal
	err := row.Scan(
		&g.GoalID,
		&g.UserID,
		&g.GoalName,
		&g.GoalCategory,
		&g.GoalDescription,
		&g.TargetDate,
		&g.StartDate,
		&g.Priority,
		&g.Status,
		&g.ProgressPercentage,
		&g.ProgressDetails,
		&g.Milestones,
		&g.Obstacles,
		&g.SuccessCriteria,
		&g.MotivationalMessage,
		&g.LastEncouragementDate,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...any) ([]model.Goal, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []model.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *Store) ListAll(ctx context.Context) ([]model.Goal, error) {
	defer metrics.ObserveStoreOp("list_all", driverName, time.Now())

	query := `SELECT ` + selectColumns + ` FROM goals`
	goals, err := s.queryGoals(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *Store) Get(ctx context.Context, goalID string) (*model.Goal, error) {
	defer metrics.ObserveStoreOp("get", driverName, time.Now())

	query := `SELECT ` + selectColumns + ` FROM goals WHERE goal_id = $1`
	g, err := scanGoal(s.db.QueryRow(ctx, query, goalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", goalID, err)
	}
	return g, nil
}

func (s *Store) Put(ctx context.Context, goal *model.Goal) error {
	defer metrics.ObserveStoreOp("put", driverName, time.Now())

	query := `
        INSERT INTO goals (goal_id, user_id, goal_name, goal_category, goal_description,
                           target_date, start_date, priority, status, progress_percentage,
                           progress_details, milestones, obstacles, success_criteria,
                           motivational_message, last_encouragement_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        ON CONFLICT (goal_id) DO UPDATE SET
            user_id = EXCLUDED.user_id,
            goal_name = EXCLUDED.goal_name,
            goal_category = EXCLUDED.goal_category,
            goal_description = EXCLUDED.goal_description,
            target_date = EXCLUDED.target_date,
            start_date = EXCLUDED.start_date,
            priority = EXCLUDED.priority,
            status = EXCLUDED.status,
            progress_percentage = EXCLUDED.progress_percentage,
            progress_details = EXCLUDED.progress_details,
            milestones = EXCLUDED.milestones,
            obstacles = EXCLUDED.obstacles,
            success_criteria = EXCLUDED.success_criteria,
            motivational_message = EXCLUDED.motivational_message,
            last_encouragement_date = EXCLUDED.last_encouragement_date,
            created_at = EXCLUDED.created_at,
            updated_at = EXCLUDED.updated_at
    `
	_, err := s.db.Exec(ctx, query,
		goal.GoalID,
		goal.UserID,
		goal.GoalName,
		goal.GoalCategory,
		goal.GoalDescription,
		goal.TargetDate,
		goal.StartDate,
		goal.Priority,
		goal.Status,
		goal.ProgressPercentage,
		goal.ProgressDetails,
		goal.Milestones,
		goal.Obstacles,
		goal.SuccessCriteria,
		goal.MotivationalMessage,
		goal.LastEncouragementDate,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put goal %s: %w", goal.GoalID, err)
	}
	return nil
}

// UpdateFields builds a single UPDATE over the named attributes only. A
// row-level UPDATE is atomic, so concurrent writers to disjoint field sets
// both land.
func (s *Store) UpdateFields(ctx context.Context, goalID string, fields store.Fields) error {
	defer metrics.ObserveStoreOp("update_fields", driverName, time.Now())

	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for attr, value := range fields {
		column, ok := columns[attr]
		if !ok {
			return fmt.Errorf("attribute %s is not updatable", attr)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	args = append(args, goalID)

	query := fmt.Sprintf("UPDATE goals SET %s WHERE goal_id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", goalID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, goalID string) error {
	defer metrics.ObserveStoreOp("delete", driverName, time.Now())

	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE goal_id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", goalID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) QueryByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	defer metrics.ObserveStoreOp("query_by_user", driverName, time.Now())

	query := `SELECT ` + selectColumns + ` FROM goals WHERE user_id = $1`
	goals, err := s.queryGoals(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals for user %s: %w", userID, err)
	}
	return goals, nil
}
