package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sensacare-alert/internal/goal"
	"sensacare-alert/internal/models"
	"sensacare-alert/internal/repository"
)

// trendSampleSize 趋势计算取最近的进度记录条数
const trendSampleSize = 10

// GoalService 目标进度服务
// 测量值落库后驱动同指标的进行中目标：追加进度记录、更新连续达成与完成状态
type GoalService struct {
	goalRepo *repository.GoalRepository
	logger   *zap.Logger
}

// NewGoalService 创建目标进度服务
func NewGoalService(goalRepo *repository.GoalRepository, logger *zap.Logger) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		logger:   logger,
	}
}

// RecordMeasurement 用一条测量值更新该指标下的全部进行中目标
// 单个目标失败不影响其他目标
func (s *GoalService) RecordMeasurement(ctx context.Context, m *models.Measurement) error {
	goals, err := s.goalRepo.ListActiveGoalsForMetric(ctx, m.UserID, m.MetricType)
	if err != nil {
		return err
	}

	for i := range goals {
		g := &goals[i]
		if _, err := s.applyProgress(ctx, g, m.Value, m.Timestamp, nil); err != nil {
			s.logger.Error("Failed to record goal progress",
				zap.String("goal_id", g.GoalID),
				zap.String("user_id", g.UserID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// RecordProgress 手动录入一次目标进度（带可选备注）
func (s *GoalService) RecordProgress(ctx context.Context, userID, goalID string, value float64, notes *string) (*models.GoalProgress, error) {
	g, err := s.goalRepo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.applyProgress(ctx, g, value, time.Now(), notes)
}

// Trend 根据最近的进度记录计算目标的趋势方向
// 递减目标（如减重）下数值下降视为向好
func (s *GoalService) Trend(ctx context.Context, userID, goalID string) (models.TrendDirection, error) {
	g, err := s.goalRepo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return "", err
	}

	recent, err := s.goalRepo.ListRecentProgress(ctx, g.GoalID, trendSampleSize)
	if err != nil {
		return "", err
	}

	values := make([]float64, 0, len(recent))
	for i := range recent {
		values = append(values, recent[i].CurrentValue)
	}

	return goal.TrendDirection(values, !g.IsIncremental), nil
}

// applyProgress 计算并落库一次进度更新
// 先追加进度记录，再写回目标本体的当前值、连续达成与完成状态
func (s *GoalService) applyProgress(ctx context.Context, g *models.Goal, value float64, at time.Time, notes *string) (*models.GoalProgress, error) {
	percentage := goal.AchievementPercentage(value, g.TargetValue, g.StartValue, g.IsIncremental)
	achieved := goal.IsAchieved(value, g.TargetValue, g.IsIncremental)

	progress := &models.GoalProgress{
		GoalID:             g.GoalID,
		Timestamp:          at,
		CurrentValue:       value,
		ProgressPercentage: percentage,
		IsCompleted:        achieved,
		Notes:              notes,
	}

	if err := s.goalRepo.CreateProgress(ctx, progress); err != nil {
		return nil, err
	}

	g.CurrentStreak, g.LongestStreak = goal.UpdateStreak(
		g.CurrentStreak, g.LongestStreak, achieved, g.LastUpdatedDate, at)

	g.CurrentValue = value
	g.LastUpdatedDate = &at
	g.UpdatedAt = time.Now()

	// 非周期性目标一旦达成即标记完成；周期性目标只累计连续达成记录
	if achieved && !g.IsRecurring && !g.IsCompleted {
		g.IsCompleted = true
		completedAt := at
		g.CompletedAt = &completedAt
	}

	if err := s.goalRepo.SaveProgressState(ctx, g); err != nil {
		return nil, err
	}

	if g.IsCompleted && g.CompletedAt != nil && g.CompletedAt.Equal(at) {
		s.logger.Info("Goal completed",
			zap.String("goal_id", g.GoalID),
			zap.String("user_id", g.UserID),
			zap.String("metric_type", string(g.MetricType)),
		)
	}

	return progress, nil
}
