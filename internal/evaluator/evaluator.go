package evaluator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sensacare-alert/internal/models"
	"sensacare-alert/internal/repository"
)

// Evaluator 阈值规则评估器
// 对每条到达的测量值：激活门 → 条件判断 → 触发累计 → 级别判定 → 文案生成 → 落库
type Evaluator struct {
	ruleRepo   *repository.ThresholdRuleRepository
	alertRepo  *repository.AlertRepository
	occurrence *OccurrenceTracker
	logger     *zap.Logger
}

// NewEvaluator 创建评估器
func NewEvaluator(
	ruleRepo *repository.ThresholdRuleRepository,
	alertRepo *repository.AlertRepository,
	occurrence *OccurrenceTracker,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		ruleRepo:   ruleRepo,
		alertRepo:  alertRepo,
		occurrence: occurrence,
		logger:     logger,
	}
}

// Evaluate 用测量值评估该用户该指标下的全部启用规则，返回产生的报警列表
// 单条规则失败不影响其余规则（记日志后继续），规则之间无顺序要求
func (e *Evaluator) Evaluate(ctx context.Context, m *models.Measurement) ([]models.Alert, error) {
	rules, err := e.ruleRepo.ListActiveRules(ctx, m.UserID, m.MetricType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	builder := NewAlertBuilder(m.UserID)

	var alerts []models.Alert
	for i := range rules {
		rule := &rules[i]

		alert, err := e.evaluateRule(ctx, builder, rule, m, now)
		if err != nil {
			e.logger.Error("Failed to evaluate rule",
				zap.String("rule_id", rule.RuleID),
				zap.String("user_id", m.UserID),
				zap.Error(err),
			)
			continue
		}
		if alert == nil {
			continue
		}

		if err := e.alertRepo.CreateAlert(ctx, alert); err != nil {
			e.logger.Error("Failed to create alert",
				zap.String("alert_id", alert.AlertID),
				zap.String("rule_id", rule.RuleID),
				zap.Error(err),
			)
			continue
		}

		if err := e.ruleRepo.MarkTriggered(ctx, rule.UserID, rule.RuleID, now); err != nil {
			e.logger.Error("Failed to mark rule triggered",
				zap.String("rule_id", rule.RuleID),
				zap.Error(err),
			)
			// 报警已落库，计数失败不回滚
		}

		e.logger.Info("Alert created",
			zap.String("alert_id", alert.AlertID),
			zap.String("alert_type", string(alert.AlertType)),
			zap.String("severity", string(alert.Severity)),
			zap.String("user_id", m.UserID),
			zap.Float64("value", m.Value),
		)

		alerts = append(alerts, *alert)
	}

	return alerts, nil
}

// evaluateRule 评估单条规则，条件满足时返回构建好的报警（否则返回 nil）
func (e *Evaluator) evaluateRule(
	ctx context.Context,
	builder *AlertBuilder,
	rule *models.ThresholdRule,
	m *models.Measurement,
	now time.Time,
) (*models.Alert, error) {
	if !IsRuleActiveNow(rule, now) {
		return nil, nil
	}

	// 时段配置非法时按无限制评估，但要让用户在日志里看得见
	if rule.TimeRestrictionStart != nil {
		if _, err := ParseClock(*rule.TimeRestrictionStart); err != nil {
			e.logger.Warn("Rule has malformed time restriction, treating as unrestricted",
				zap.String("rule_id", rule.RuleID),
				zap.Error(err),
			)
		}
	}

	qualified := CheckCondition(m.Value, rule)

	satisfied, err := e.occurrence.Record(ctx, rule, m.Timestamp, qualified)
	if err != nil {
		return nil, err
	}
	if !satisfied {
		return nil, nil
	}

	severity := DetermineSeverity(rule.AlertType, m.Value, rule.ThresholdValue)
	// 用户配置的默认级别是下限，分类结果只升不降
	severity = models.MaxSeverity(severity, rule.DefaultSeverity)

	content := GenerateContent(rule, severity, m.Value)

	return builder.BuildAlert(rule, m, severity, content)
}
