package service

import (
	"context"

	"go.uber.org/zap"

	"sensacare-alert/internal/models"
)

// defaultRules 新用户的系统默认阈值规则
// 阈值取成年人常用临床参考范围，用户可随时改阈值或停用
var defaultRules = []models.ThresholdRule{
	{
		MetricType:        models.MetricHeartRate,
		ConditionOperator: models.OperatorAbove,
		ThresholdValue:    120,
		AlertType:         models.AlertHeartRateHigh,
		DefaultSeverity:   models.SeverityMedium,
		CooldownMinutes:   30,
	},
	{
		MetricType:        models.MetricHeartRate,
		ConditionOperator: models.OperatorBelow,
		ThresholdValue:    50,
		AlertType:         models.AlertHeartRateLow,
		DefaultSeverity:   models.SeverityMedium,
		CooldownMinutes:   30,
	},
	{
		MetricType:        models.MetricBloodPressureSystolic,
		ConditionOperator: models.OperatorAbove,
		ThresholdValue:    140,
		AlertType:         models.AlertBloodPressureHigh,
		DefaultSeverity:   models.SeverityMedium,
		CooldownMinutes:   60,
	},
	{
		MetricType:        models.MetricOxygenSaturation,
		ConditionOperator: models.OperatorBelow,
		ThresholdValue:    94,
		AlertType:         models.AlertOxygenLow,
		DefaultSeverity:   models.SeverityHigh,
		CooldownMinutes:   15,
	},
	{
		MetricType:        models.MetricBodyTemperature,
		ConditionOperator: models.OperatorAbove,
		ThresholdValue:    38,
		AlertType:         models.AlertTemperatureHigh,
		DefaultSeverity:   models.SeverityMedium,
		CooldownMinutes:   60,
	},
	{
		MetricType:              models.MetricBloodGlucose,
		ConditionOperator:       models.OperatorOutside,
		ThresholdValue:          70,
		SecondaryThresholdValue: floatPtr(180),
		AlertType:               models.AlertGlucoseHigh,
		DefaultSeverity:         models.SeverityHigh,
		CooldownMinutes:         30,
	},
}

// InstallDefaultRules 为用户创建系统默认规则
// 逐条创建，单条失败不阻断其余；返回第一个错误
func (s *AlertService) InstallDefaultRules(ctx context.Context, userID string) ([]models.ThresholdRule, error) {
	created := make([]models.ThresholdRule, 0, len(defaultRules))
	var firstErr error

	for i := range defaultRules {
		rule := defaultRules[i]
		rule.UserID = userID
		rule.IsActive = true

		if err := s.ruleRepo.CreateRule(ctx, &rule); err != nil {
			s.logger.Error("Failed to install default rule",
				zap.String("user_id", userID),
				zap.String("metric_type", string(rule.MetricType)),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		created = append(created, rule)
	}

	s.logger.Info("Default rules installed",
		zap.String("user_id", userID),
		zap.Int("count", len(created)),
	)

	return created, firstErr
}

func floatPtr(v float64) *float64 {
	return &v
}
