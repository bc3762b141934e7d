package evaluator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensacare-alert/internal/models"
)

func TestBuildAlert(t *testing.T) {
	rule := makeRule(models.OperatorAbove, 120, nil)
	rule.AlertType = models.AlertHeartRateHigh

	source := "Watch"
	m := &models.Measurement{
		MeasurementID: "meas-1",
		UserID:        "user-1",
		MetricType:    models.MetricHeartRate,
		Value:         150,
		Timestamp:     time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
		Source:        &source,
	}

	builder := NewAlertBuilder("user-1")
	content := GenerateContent(rule, models.SeverityMedium, m.Value)

	alert, err := builder.BuildAlert(rule, m, models.SeverityMedium, content)
	require.NoError(t, err)

	assert.NotEmpty(t, alert.AlertID)
	assert.Equal(t, "user-1", alert.UserID)
	assert.Equal(t, models.AlertHeartRateHigh, alert.AlertType)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
	assert.Equal(t, models.StatusActive, alert.Status, "persisted alerts start out ACTIVE")
	assert.False(t, alert.IsEmergency)
	assert.False(t, alert.IsDismissed)

	require.NotNil(t, alert.RuleID)
	assert.Equal(t, rule.RuleID, *alert.RuleID)
	require.NotNil(t, alert.MeasurementID)
	assert.Equal(t, "meas-1", *alert.MeasurementID)

	// 触发快照携带完整评估上下文
	var data models.TriggerData
	require.NoError(t, json.Unmarshal([]byte(alert.TriggerData), &data))
	assert.Equal(t, models.MetricHeartRate, data.MetricType)
	assert.Equal(t, 150.0, data.Value)
	assert.Equal(t, 120.0, data.Threshold)
	assert.Equal(t, models.OperatorAbove, data.Operator)
	assert.InDelta(t, 25.0, data.DeviationPct, 0.001)
	assert.Equal(t, m.Timestamp.Unix(), data.MeasuredAt)
	require.NotNil(t, data.Source)
	assert.Equal(t, "Watch", *data.Source)
}

func TestBuildAlert_EmergencySetsFlag(t *testing.T) {
	rule := makeRule(models.OperatorBelow, 94, nil)
	rule.AlertType = models.AlertOxygenLow

	m := &models.Measurement{
		UserID:     "user-1",
		MetricType: models.MetricOxygenSaturation,
		Value:      85,
		Timestamp:  time.Now(),
	}

	builder := NewAlertBuilder("user-1")
	content := GenerateContent(rule, models.SeverityEmergency, m.Value)

	alert, err := builder.BuildAlert(rule, m, models.SeverityEmergency, content)
	require.NoError(t, err)

	assert.True(t, alert.IsEmergency)
	assert.Nil(t, alert.MeasurementID, "no measurement id on the source measurement")
}

func TestBuildAlert_UniqueIDs(t *testing.T) {
	rule := makeRule(models.OperatorAbove, 120, nil)
	m := &models.Measurement{UserID: "user-1", MetricType: models.MetricHeartRate, Value: 150, Timestamp: time.Now()}

	builder := NewAlertBuilder("user-1")
	content := GenerateContent(rule, models.SeverityLow, m.Value)

	a1, err := builder.BuildAlert(rule, m, models.SeverityLow, content)
	require.NoError(t, err)
	a2, err := builder.BuildAlert(rule, m, models.SeverityLow, content)
	require.NoError(t, err)

	assert.NotEqual(t, a1.AlertID, a2.AlertID)
}
