package consumer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensacare-alert/internal/models"
)

func TestParseMeasurement(t *testing.T) {
	measuredAt := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"measurement_id": "meas-1",
		"user_id":        "user-1",
		"metric_type":    "heart_rate",
		"value":          72.5,
		"timestamp":      measuredAt.Unix(),
		"source":         "Watch",
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	m, err := ParseMeasurement(raw)

	require.NoError(t, err)
	assert.Equal(t, "meas-1", m.MeasurementID)
	assert.Equal(t, "user-1", m.UserID)
	assert.Equal(t, models.MetricHeartRate, m.MetricType)
	assert.Equal(t, 72.5, m.Value)
	assert.Equal(t, measuredAt.Unix(), m.Timestamp.Unix())
	require.NotNil(t, m.Source)
	assert.Equal(t, "Watch", *m.Source)
}

func TestParseMeasurement_MissingUserID(t *testing.T) {
	raw := []byte(`{"metric_type":"heart_rate","value":72,"timestamp":1700000000}`)

	m, err := ParseMeasurement(raw)
	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "user_id")
}

func TestParseMeasurement_UnknownMetricRejected(t *testing.T) {
	raw := []byte(`{"user_id":"user-1","metric_type":"mood","value":7,"timestamp":1700000000}`)

	m, err := ParseMeasurement(raw)
	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "unknown metric type")
}

func TestParseMeasurement_CorruptJSON(t *testing.T) {
	m, err := ParseMeasurement([]byte(`{not json`))
	assert.Error(t, err)
	assert.Nil(t, m)
}
