package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sensacare-alert/internal/models"
)

func TestShouldEscalate_WaitTimesBySeverity(t *testing.T) {
	tests := []struct {
		severity models.Severity
		elapsed  time.Duration
		want     bool
	}{
		{models.SeverityHigh, 29 * time.Minute, false},
		{models.SeverityHigh, 30 * time.Minute, true},
		{models.SeverityMedium, 59 * time.Minute, false},
		{models.SeverityMedium, 60 * time.Minute, true},
		{models.SeverityLow, 119 * time.Minute, false},
		{models.SeverityLow, 120 * time.Minute, true},
	}

	for _, tt := range tests {
		a := activeAlert(models.StatusActive, tt.severity)
		now := a.Timestamp.Add(tt.elapsed)
		assert.Equal(t, tt.want, ShouldEscalate(a, now),
			"%s after %s", tt.severity, tt.elapsed)
	}
}

func TestShouldEscalate_AcknowledgedNeverEscalates(t *testing.T) {
	a := activeAlert(models.StatusAcknowledged, models.SeverityHigh)
	assert.False(t, ShouldEscalate(a, a.Timestamp.Add(24*time.Hour)))

	// 曾被确认过的 ESCALATED 报警也不再升级
	a = activeAlert(models.StatusEscalated, models.SeverityHigh)
	acked := a.Timestamp.Add(time.Minute)
	a.AcknowledgedAt = &acked
	assert.False(t, ShouldEscalate(a, a.Timestamp.Add(24*time.Hour)))
}

func TestShouldEscalate_EmergencyIsCeiling(t *testing.T) {
	a := activeAlert(models.StatusActive, models.SeverityEmergency)
	assert.False(t, ShouldEscalate(a, a.Timestamp.Add(24*time.Hour)))
}

func TestShouldEscalate_TerminalNeverEscalates(t *testing.T) {
	for _, status := range []models.AlertStatus{models.StatusResolved, models.StatusFalseAlarm} {
		a := activeAlert(status, models.SeverityHigh)
		assert.False(t, ShouldEscalate(a, a.Timestamp.Add(24*time.Hour)), "status %s", status)
	}
}

func TestEscalatedSeverity_LadderWithIdempotentCeiling(t *testing.T) {
	assert.Equal(t, models.SeverityMedium, EscalatedSeverity(models.SeverityLow))
	assert.Equal(t, models.SeverityHigh, EscalatedSeverity(models.SeverityMedium))
	assert.Equal(t, models.SeverityEmergency, EscalatedSeverity(models.SeverityHigh))
	assert.Equal(t, models.SeverityEmergency, EscalatedSeverity(models.SeverityEmergency))
}
