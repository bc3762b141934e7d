package evaluator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sensacare-alert/internal/models"
)

// AlertBuilder 报警记录构建器
type AlertBuilder struct {
	userID string
}

// NewAlertBuilder 创建报警记录构建器
func NewAlertBuilder(userID string) *AlertBuilder {
	return &AlertBuilder{
		userID: userID,
	}
}

// BuildAlert 构建报警记录
// NEW 只是创建瞬间的过渡标记，落库的记录直接处于 ACTIVE
func (b *AlertBuilder) BuildAlert(
	rule *models.ThresholdRule,
	m *models.Measurement,
	severity models.Severity,
	content AlertContent,
) (*models.Alert, error) {
	now := time.Now()

	triggerData := &models.TriggerData{
		MetricType:         m.MetricType,
		Value:              m.Value,
		Threshold:          rule.ThresholdValue,
		SecondaryThreshold: rule.SecondaryThresholdValue,
		Operator:           rule.ConditionOperator,
		DeviationPct:       DeviationPercentage(rule.AlertType, m.Value, rule.ThresholdValue),
		MeasuredAt:         m.Timestamp.Unix(),
		Source:             m.Source,
	}

	triggerDataJSON, err := json.Marshal(triggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	measurementID := m.MeasurementID
	ruleID := rule.RuleID

	alert := &models.Alert{
		AlertID:        uuid.New().String(),
		UserID:         b.userID,
		AlertType:      rule.AlertType,
		Severity:       severity,
		Title:          content.Title,
		Message:        content.Message,
		Recommendation: content.Recommendation,
		Timestamp:      now,
		RuleID:         &ruleID,
		TriggerData:    string(triggerDataJSON),
		Status:         models.StatusActive,
		IsEmergency:    severity == models.SeverityEmergency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if measurementID != "" {
		alert.MeasurementID = &measurementID
	}

	return alert, nil
}
