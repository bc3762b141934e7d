package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sensacare-alert/internal/models"
)

// GoalRepository 目标与目标进度仓库
type GoalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGoalRepository 创建目标仓库
func NewGoalRepository(db *sql.DB, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{
		db:     db,
		logger: logger,
	}
}

const goalColumns = `
		goal_id, user_id, metric_type, start_value, target_value, current_value,
		is_incremental, start_date, deadline, is_active, is_completed,
		completed_at, is_recurring, current_streak, longest_streak,
		last_updated_date, created_at, updated_at`

// GetGoal 根据 goal_id 获取单个目标（需验证 user_id）
func (r *GoalRepository) GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if goalID == "" {
		return nil, fmt.Errorf("goal_id is required")
	}

	query := `SELECT` + goalColumns + `
	FROM goals
	WHERE goal_id = $1 AND user_id = $2`

	g, err := scanGoal(r.db.QueryRowContext(ctx, query, goalID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("goal not found: %s", goalID)
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return g, nil
}

// ListActiveGoalsForMetric 获取用户在某指标下的全部进行中目标
func (r *GoalRepository) ListActiveGoalsForMetric(ctx context.Context, userID string, metric models.MetricType) ([]models.Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `SELECT` + goalColumns + `
	FROM goals
	WHERE user_id = $1 AND metric_type = $2 AND is_active = TRUE AND is_completed = FALSE
	ORDER BY start_date`

	rows, err := r.db.QueryContext(ctx, query, userID, string(metric))
	if err != nil {
		return nil, fmt.Errorf("failed to list active goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}

	return goals, nil
}

// CreateGoal 创建目标（goal_id 为空时生成 UUID）
func (r *GoalRepository) CreateGoal(ctx context.Context, g *models.Goal) error {
	if g.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if g.GoalID == "" {
		g.GoalID = uuid.New().String()
	}

	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	query := `
	INSERT INTO goals (
		goal_id, user_id, metric_type, start_value, target_value, current_value,
		is_incremental, start_date, deadline, is_active, is_completed,
		completed_at, is_recurring, current_streak, longest_streak,
		last_updated_date, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		g.GoalID, g.UserID, string(g.MetricType),
		g.StartValue, g.TargetValue, g.CurrentValue,
		g.IsIncremental, g.StartDate, g.Deadline,
		g.IsActive, g.IsCompleted, g.CompletedAt, g.IsRecurring,
		g.CurrentStreak, g.LongestStreak, g.LastUpdatedDate,
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	r.logger.Info("Goal created",
		zap.String("goal_id", g.GoalID),
		zap.String("user_id", g.UserID),
		zap.String("metric_type", string(g.MetricType)),
	)

	return nil
}

// SaveProgressState 写回目标的进度相关字段（当前值、连续达成记录、完成状态）
func (r *GoalRepository) SaveProgressState(ctx context.Context, g *models.Goal) error {
	query := `
	UPDATE goals SET
		current_value = $3,
		is_completed = $4,
		completed_at = $5,
		current_streak = $6,
		longest_streak = $7,
		last_updated_date = $8,
		updated_at = $9
	WHERE goal_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		g.GoalID, g.UserID,
		g.CurrentValue, g.IsCompleted, g.CompletedAt,
		g.CurrentStreak, g.LongestStreak, g.LastUpdatedDate,
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save goal progress state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal not found: %s", g.GoalID)
	}

	return nil
}

// CreateProgress 追加一条进度记录（只追加，写入后不再修改）
func (r *GoalRepository) CreateProgress(ctx context.Context, p *models.GoalProgress) error {
	if p.GoalID == "" {
		return fmt.Errorf("goal_id is required")
	}
	if p.ProgressID == "" {
		p.ProgressID = uuid.New().String()
	}

	query := `
	INSERT INTO goal_progress (
		progress_id, goal_id, timestamp, current_value,
		progress_percentage, is_completed, notes
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		p.ProgressID, p.GoalID, p.Timestamp, p.CurrentValue,
		p.ProgressPercentage, p.IsCompleted, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal progress: %w", err)
	}

	return nil
}

// ListRecentProgress 获取目标最近的进度记录（时间正序，用于趋势计算）
func (r *GoalRepository) ListRecentProgress(ctx context.Context, goalID string, limit int) ([]models.GoalProgress, error) {
	if goalID == "" {
		return nil, fmt.Errorf("goal_id is required")
	}
	if limit <= 0 {
		limit = 10
	}

	// 先按时间倒序取最近 N 条，再正序返回
	query := `
	SELECT progress_id, goal_id, timestamp, current_value,
	       progress_percentage, is_completed, notes
	FROM (
		SELECT progress_id, goal_id, timestamp, current_value,
		       progress_percentage, is_completed, notes
		FROM goal_progress
		WHERE goal_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	) recent
	ORDER BY timestamp`

	rows, err := r.db.QueryContext(ctx, query, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent progress: %w", err)
	}
	defer rows.Close()

	var progress []models.GoalProgress
	for rows.Next() {
		var p models.GoalProgress
		err := rows.Scan(
			&p.ProgressID, &p.GoalID, &p.Timestamp, &p.CurrentValue,
			&p.ProgressPercentage, &p.IsCompleted, &p.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal progress: %w", err)
		}
		progress = append(progress, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goal progress: %w", err)
	}

	return progress, nil
}

// DeleteGoal 删除目标（goal_progress 由外键级联删除）
func (r *GoalRepository) DeleteGoal(ctx context.Context, userID, goalID string) error {
	query := `DELETE FROM goals WHERE goal_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal not found: %s", goalID)
	}

	return nil
}

// scanGoal 扫描单行目标并在存储边界解析枚举
func scanGoal(row rowScanner) (*models.Goal, error) {
	var g models.Goal
	var metricType string

	err := row.Scan(
		&g.GoalID, &g.UserID, &metricType,
		&g.StartValue, &g.TargetValue, &g.CurrentValue,
		&g.IsIncremental, &g.StartDate, &g.Deadline,
		&g.IsActive, &g.IsCompleted, &g.CompletedAt, &g.IsRecurring,
		&g.CurrentStreak, &g.LongestStreak, &g.LastUpdatedDate,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if g.MetricType, err = models.ParseMetricType(metricType); err != nil {
		return nil, err
	}

	return &g, nil
}
