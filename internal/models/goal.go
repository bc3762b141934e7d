package models

import (
	"fmt"
	"time"
)

// TrendDirection 进度趋势方向
type TrendDirection string

const (
	TrendUp     TrendDirection = "UP"
	TrendDown   TrendDirection = "DOWN"
	TrendStable TrendDirection = "STABLE"
)

// ParseTrendDirection 从存储层字符串解析趋势方向
func ParseTrendDirection(s string) (TrendDirection, error) {
	switch TrendDirection(s) {
	case TrendUp, TrendDown, TrendStable:
		return TrendDirection(s), nil
	}
	return "", fmt.Errorf("unknown trend direction: %q", s)
}

// Goal 健康目标（对应 goals 表）
// IsIncremental=true 表示数值越高越好（如步数），false 表示越低越好（如减重）
type Goal struct {
	GoalID     string     `json:"goal_id" db:"goal_id"`
	UserID     string     `json:"user_id" db:"user_id"`
	MetricType MetricType `json:"metric_type" db:"metric_type"`

	StartValue    *float64 `json:"start_value,omitempty" db:"start_value"`
	TargetValue   float64  `json:"target_value" db:"target_value"`
	CurrentValue  float64  `json:"current_value" db:"current_value"`
	IsIncremental bool     `json:"is_incremental" db:"is_incremental"`

	StartDate time.Time  `json:"start_date" db:"start_date"`
	Deadline  *time.Time `json:"deadline,omitempty" db:"deadline"`

	IsActive    bool       `json:"is_active" db:"is_active"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"` // 为 true 时 CompletedAt 必非空
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	IsRecurring bool       `json:"is_recurring" db:"is_recurring"`

	// 连续达成记录
	CurrentStreak   int        `json:"current_streak" db:"current_streak"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	LastUpdatedDate *time.Time `json:"last_updated_date,omitempty" db:"last_updated_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GoalProgress 目标进度记录（对应 goal_progress 表，随目标级联删除）
// 只追加的时间序列，写入后不再修改
type GoalProgress struct {
	ProgressID         string    `json:"progress_id" db:"progress_id"`
	GoalID             string    `json:"goal_id" db:"goal_id"`
	Timestamp          time.Time `json:"timestamp" db:"timestamp"`
	CurrentValue       float64   `json:"current_value" db:"current_value"`
	ProgressPercentage float64   `json:"progress_percentage" db:"progress_percentage"` // 0–100，已截断
	IsCompleted        bool      `json:"is_completed" db:"is_completed"`               // 本条记录时点的达成快照
	Notes              *string   `json:"notes,omitempty" db:"notes"`
}
