package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensacare-alert/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func activeAlert(status models.AlertStatus, severity models.Severity) *models.Alert {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &models.Alert{
		AlertID:   "alert-1",
		UserID:    "user-1",
		AlertType: models.AlertHeartRateHigh,
		Severity:  severity,
		Status:    status,
		Timestamp: created,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestAcknowledge(t *testing.T) {
	a := activeAlert(models.StatusActive, models.SeverityMedium)
	now := a.Timestamp.Add(12 * time.Minute)

	require.NoError(t, Acknowledge(a, now, strPtr("feeling fine")))

	assert.Equal(t, models.StatusAcknowledged, a.Status)
	require.NotNil(t, a.AcknowledgedAt)
	assert.Equal(t, now, *a.AcknowledgedAt)
	require.NotNil(t, a.TimeToAcknowledgeMinutes)
	assert.Equal(t, 12, *a.TimeToAcknowledgeMinutes)
	require.NotNil(t, a.UserResponse)
	assert.Equal(t, "feeling fine", *a.UserResponse)
}

func TestAcknowledge_FromEscalated(t *testing.T) {
	a := activeAlert(models.StatusEscalated, models.SeverityHigh)
	require.NoError(t, Acknowledge(a, time.Now(), nil))
	assert.Equal(t, models.StatusAcknowledged, a.Status)
}

func TestAcknowledge_InvalidFromStatus(t *testing.T) {
	for _, status := range []models.AlertStatus{
		models.StatusAcknowledged, models.StatusResolved, models.StatusFalseAlarm,
	} {
		a := activeAlert(status, models.SeverityMedium)
		err := Acknowledge(a, time.Now(), nil)
		require.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
		assert.Equal(t, status, a.Status, "alert must stay unchanged on invalid transition")
		assert.Nil(t, a.AcknowledgedAt)
	}
}

func TestResolve(t *testing.T) {
	for _, status := range []models.AlertStatus{
		models.StatusActive, models.StatusAcknowledged, models.StatusEscalated,
	} {
		a := activeAlert(status, models.SeverityMedium)
		now := time.Now()

		require.NoError(t, Resolve(a, now, "took medication"), "from %s", status)
		assert.Equal(t, models.StatusResolved, a.Status)
		require.NotNil(t, a.ResolvedAt)
		require.NotNil(t, a.Resolution)
		assert.Equal(t, "took medication", *a.Resolution)
	}
}

func TestResolve_RequiresResolution(t *testing.T) {
	a := activeAlert(models.StatusActive, models.SeverityMedium)
	err := Resolve(a, time.Now(), "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusActive, a.Status)
}

func TestResolve_TerminalIsImmutable(t *testing.T) {
	a := activeAlert(models.StatusResolved, models.SeverityMedium)
	require.ErrorIs(t, Resolve(a, time.Now(), "again"), ErrInvalidTransition)

	a = activeAlert(models.StatusFalseAlarm, models.SeverityMedium)
	require.ErrorIs(t, Resolve(a, time.Now(), "again"), ErrInvalidTransition)
}

func TestMarkFalseAlarm(t *testing.T) {
	a := activeAlert(models.StatusAcknowledged, models.SeverityMedium)

	require.NoError(t, MarkFalseAlarm(a, time.Now(), "sensor was loose"))
	assert.Equal(t, models.StatusFalseAlarm, a.Status)
	require.NotNil(t, a.Resolution)
	assert.Equal(t, "sensor was loose", *a.Resolution)

	// 终态不可再迁移
	require.ErrorIs(t, MarkFalseAlarm(a, time.Now(), "again"), ErrInvalidTransition)
	require.ErrorIs(t, Acknowledge(a, time.Now(), nil), ErrInvalidTransition)
}

func TestEscalate(t *testing.T) {
	a := activeAlert(models.StatusActive, models.SeverityMedium)
	now := time.Now()

	require.NoError(t, Escalate(a, now, nil))

	assert.Equal(t, models.StatusEscalated, a.Status)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.Equal(t, 1, a.EscalationLevel)
	require.NotNil(t, a.EscalatedAt)
	assert.False(t, a.EmergencyContactsNotified)
}

func TestEscalate_ToEmergencyNotifiesContacts(t *testing.T) {
	a := activeAlert(models.StatusEscalated, models.SeverityHigh)
	a.EscalationLevel = 1

	require.NoError(t, Escalate(a, time.Now(), []string{"contact-1", "contact-2"}))

	assert.Equal(t, models.SeverityEmergency, a.Severity)
	assert.True(t, a.IsEmergency)
	assert.Equal(t, 2, a.EscalationLevel)
	assert.True(t, a.EmergencyContactsNotified)
	assert.Equal(t, []string{"contact-1", "contact-2"}, a.EscalatedToContactIDs)
	assert.Equal(t, []string{"contact-1", "contact-2"}, a.NotifiedContactIDs)
}

func TestEscalate_InvalidFromTerminal(t *testing.T) {
	a := activeAlert(models.StatusResolved, models.SeverityMedium)
	require.ErrorIs(t, Escalate(a, time.Now(), nil), ErrInvalidTransition)
}

func TestDismiss_OrthogonalToStatus(t *testing.T) {
	for _, status := range []models.AlertStatus{
		models.StatusActive, models.StatusAcknowledged,
		models.StatusResolved, models.StatusFalseAlarm, models.StatusEscalated,
	} {
		a := activeAlert(status, models.SeverityMedium)

		Dismiss(a, time.Now(), true)
		assert.True(t, a.IsDismissed)
		assert.Equal(t, status, a.Status, "dismissal never changes the state machine")

		Dismiss(a, time.Now(), false)
		assert.False(t, a.IsDismissed)
	}
}

func TestSetMedicalReview_AnyStatus(t *testing.T) {
	for _, status := range []models.AlertStatus{
		models.StatusActive, models.StatusResolved, models.StatusFalseAlarm,
	} {
		a := activeAlert(status, models.SeverityHigh)
		now := time.Now()

		SetMedicalReview(a, now, "dr-lee", strPtr("follow up in a week"), true)

		assert.Equal(t, status, a.Status)
		assert.True(t, a.RequiresMedicalReview)
		require.NotNil(t, a.ReviewedBy)
		assert.Equal(t, "dr-lee", *a.ReviewedBy)
		require.NotNil(t, a.ReviewedAt)
		require.NotNil(t, a.ReviewNotes)
	}
}
