package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sensacare-alert/internal/lifecycle"
	"sensacare-alert/internal/models"
	"sensacare-alert/internal/repository"
)

// AcknowledgeAlert 用户确认报警
// 迁移校验在内存中完成，写回时带状态守护：并发操作抢先改了状态就报 ErrInvalidTransition
func (s *AlertService) AcknowledgeAlert(ctx context.Context, userID, alertID string, userResponse *string) (*models.Alert, error) {
	alert, err := s.alertRepo.GetAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	fromStatus := alert.Status
	if err := lifecycle.Acknowledge(alert, time.Now(), userResponse); err != nil {
		return nil, err
	}

	if err := s.saveTransition(ctx, alert, fromStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Alert acknowledged",
		zap.String("alert_id", alertID),
		zap.String("user_id", userID),
	)

	s.afterTransition(ctx, userID)
	return alert, nil
}

// ResolveAlert 解决报警（resolution 必填）
func (s *AlertService) ResolveAlert(ctx context.Context, userID, alertID, resolution string) (*models.Alert, error) {
	alert, err := s.alertRepo.GetAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	fromStatus := alert.Status
	if err := lifecycle.Resolve(alert, time.Now(), resolution); err != nil {
		return nil, err
	}

	if err := s.saveTransition(ctx, alert, fromStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Alert resolved",
		zap.String("alert_id", alertID),
		zap.String("user_id", userID),
	)

	s.afterTransition(ctx, userID)
	return alert, nil
}

// MarkFalseAlarm 标记误报（reason 记入 resolution）
func (s *AlertService) MarkFalseAlarm(ctx context.Context, userID, alertID, reason string) (*models.Alert, error) {
	alert, err := s.alertRepo.GetAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	fromStatus := alert.Status
	if err := lifecycle.MarkFalseAlarm(alert, time.Now(), reason); err != nil {
		return nil, err
	}

	if err := s.saveTransition(ctx, alert, fromStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Alert marked as false alarm",
		zap.String("alert_id", alertID),
		zap.String("user_id", userID),
	)

	s.afterTransition(ctx, userID)
	return alert, nil
}

// DismissAlert 隐藏/取消隐藏报警（不改变状态机状态）
func (s *AlertService) DismissAlert(ctx context.Context, userID, alertID string, dismissed bool) error {
	if err := s.alertRepo.SetDismissed(ctx, userID, alertID, dismissed); err != nil {
		return err
	}

	s.afterTransition(ctx, userID)
	return nil
}

// SetMedicalReview 设置医疗复核字段（终态报警同样允许）
func (s *AlertService) SetMedicalReview(ctx context.Context, userID, alertID, reviewedBy string, notes *string, requiresFollowUp bool) (*models.Alert, error) {
	alert, err := s.alertRepo.GetAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	lifecycle.SetMedicalReview(alert, time.Now(), reviewedBy, notes, requiresFollowUp)

	if err := s.alertRepo.SaveMedicalReview(ctx, alert); err != nil {
		return nil, err
	}

	return alert, nil
}

// CleanupTerminalAlerts 用户主动清理保留期外的终态报警
func (s *AlertService) CleanupTerminalAlerts(ctx context.Context, userID string) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.Alert.RetentionDays)
	return s.alertRepo.DeleteTerminalBefore(ctx, userID, cutoff)
}

// saveTransition 守护写回；并发冲突统一映射为 ErrInvalidTransition
func (s *AlertService) saveTransition(ctx context.Context, alert *models.Alert, fromStatus models.AlertStatus) error {
	err := s.alertRepo.SaveTransition(ctx, alert, []models.AlertStatus{fromStatus})
	if err != nil {
		if errors.Is(err, repository.ErrTransitionConflict) {
			return fmt.Errorf("%w: alert %s was modified concurrently", lifecycle.ErrInvalidTransition, alert.AlertID)
		}
		return err
	}
	return nil
}

// afterTransition 状态变化后刷新活跃报警缓存（失败只记日志）
func (s *AlertService) afterTransition(ctx context.Context, userID string) {
	if err := s.refreshAlertCache(ctx, userID); err != nil {
		s.logger.Warn("Failed to refresh alert cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
