package service

import (
	"context"

	"go.uber.org/zap"

	"sensacare-alert/internal/models"
	"sensacare-alert/internal/repository"
)

// ProcessMeasurement 处理一条到达的测量值（实现 consumer.MeasurementHandler）
// 先评估报警规则，再驱动同指标的进行中目标；两步互不影响
func (s *AlertService) ProcessMeasurement(ctx context.Context, m *models.Measurement) error {
	alerts, err := s.evaluator.Evaluate(ctx, m)
	if err != nil {
		return err
	}

	if len(alerts) > 0 {
		s.afterAlertsCreated(ctx, m.UserID, alerts)
	}

	// 目标进度与报警相互独立，失败只记日志
	if err := s.goalService.RecordMeasurement(ctx, m); err != nil {
		s.logger.Error("Failed to record goal progress for measurement",
			zap.String("user_id", m.UserID),
			zap.String("metric_type", string(m.MetricType)),
			zap.Error(err),
		)
	}

	return nil
}

// afterAlertsCreated 新报警落库后的附加动作：刷新活跃缓存、推送后端（尽力而为）
func (s *AlertService) afterAlertsCreated(ctx context.Context, userID string, created []models.Alert) {
	if err := s.refreshAlertCache(ctx, userID); err != nil {
		s.logger.Warn("Failed to refresh alert cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	for i := range created {
		alert := &created[i]
		if err := s.cloudClient.PushAlert(ctx, alert); err != nil {
			s.logger.Warn("Failed to push alert to cloud",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
		}
	}
}

// refreshAlertCache 以数据库为准重建用户的活跃报警缓存
func (s *AlertService) refreshAlertCache(ctx context.Context, userID string) error {
	active, err := s.alertRepo.ListAlerts(ctx, userID, repository.AlertFilters{
		Statuses: []models.AlertStatus{
			models.StatusActive,
			models.StatusEscalated,
			models.StatusAcknowledged,
		},
	})
	if err != nil {
		return err
	}

	return s.alertCache.UpdateAlertCache(ctx, userID, active)
}
