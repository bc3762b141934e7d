package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"sensacare-alert/internal/config"
	"sensacare-alert/internal/consumer"
	"sensacare-alert/internal/lifecycle"
	"sensacare-alert/internal/models"
	"sensacare-alert/internal/repository"
	"sensacare-alert/internal/sync"
)

// EscalationSweeper 升级巡检
// 周期性扫描未确认的非终态报警，到达升级时点的提升级别并通知紧急联系人
type EscalationSweeper struct {
	config      *config.Config
	alertRepo   *repository.AlertRepository
	alertCache  *consumer.AlertCache
	cloudClient *sync.CloudClient
	logger      *zap.Logger
}

// NewEscalationSweeper 创建升级巡检
func NewEscalationSweeper(
	cfg *config.Config,
	alertRepo *repository.AlertRepository,
	alertCache *consumer.AlertCache,
	cloudClient *sync.CloudClient,
	logger *zap.Logger,
) *EscalationSweeper {
	return &EscalationSweeper{
		config:      cfg,
		alertRepo:   alertRepo,
		alertCache:  alertCache,
		cloudClient: cloudClient,
		logger:      logger,
	}
}

// Start 启动巡检循环
func (s *EscalationSweeper) Start(ctx context.Context) error {
	interval := time.Duration(s.config.Alert.Sweep.IntervalSeconds) * time.Second

	s.logger.Info("Escalation sweeper started",
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即执行一次
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("Failed to sweep alerts on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Escalation sweeper stopped")
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Failed to sweep alerts",
					zap.Error(err),
				)
				// 继续执行，不中断
			}
		}
	}
}

// Sweep 执行一轮巡检
func (s *EscalationSweeper) Sweep(ctx context.Context) error {
	now := time.Now()

	candidates, err := s.alertRepo.ListEscalationCandidates(ctx, s.config.Alert.Sweep.BatchSize)
	if err != nil {
		return err
	}

	escalated := 0
	for i := range candidates {
		alert := &candidates[i]

		if !lifecycle.ShouldEscalate(alert, now) {
			continue
		}

		if err := s.escalateOne(ctx, alert, now); err != nil {
			s.logger.Error("Failed to escalate alert",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
			continue
		}
		escalated++
	}

	if escalated > 0 {
		s.logger.Info("Escalation sweep completed",
			zap.Int("candidates", len(candidates)),
			zap.Int("escalated", escalated),
		)
	}

	return nil
}

// escalateOne 升级单条报警
// 升到 EMERGENCY 时请求后端通知紧急联系人，并把通知结果记回报警
func (s *EscalationSweeper) escalateOne(ctx context.Context, alert *models.Alert, now time.Time) error {
	fromStatus := alert.Status

	var contactIDs []string
	if lifecycle.EscalatedSeverity(alert.Severity) == models.SeverityEmergency {
		ids, err := s.cloudClient.NotifyEmergencyContacts(ctx, alert)
		if err != nil {
			// 通知失败不阻止升级本身
			s.logger.Warn("Failed to notify emergency contacts",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
		} else {
			contactIDs = ids
		}
	}

	if err := lifecycle.Escalate(alert, now, contactIDs); err != nil {
		return err
	}

	err := s.alertRepo.SaveTransition(ctx, alert, []models.AlertStatus{fromStatus})
	if err != nil {
		// 用户抢先确认/解决了：放弃本次升级，这是正常竞争
		if errors.Is(err, repository.ErrTransitionConflict) {
			s.logger.Debug("Alert changed during escalation, skipping",
				zap.String("alert_id", alert.AlertID),
			)
			return nil
		}
		return err
	}

	s.logger.Info("Alert escalated",
		zap.String("alert_id", alert.AlertID),
		zap.String("user_id", alert.UserID),
		zap.String("severity", string(alert.Severity)),
		zap.Int("escalation_level", alert.EscalationLevel),
	)

	// 置空缓存避免陈旧级别展示，下一轮读取时以数据库为准重建
	if err := s.alertCache.UpdateAlertCache(ctx, alert.UserID, nil); err != nil {
		s.logger.Warn("Failed to invalidate alert cache",
			zap.String("user_id", alert.UserID),
			zap.Error(err),
		)
	}

	if err := s.cloudClient.PushAlert(ctx, alert); err != nil {
		s.logger.Warn("Failed to push escalated alert to cloud",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}

	return nil
}
