package models

import (
	"fmt"
	"time"
)

// MetricType 生理指标类型（以字符串形式持久化）
type MetricType string

const (
	MetricHeartRate              MetricType = "heart_rate"
	MetricBloodPressureSystolic  MetricType = "blood_pressure_systolic"
	MetricBloodPressureDiastolic MetricType = "blood_pressure_diastolic"
	MetricOxygenSaturation       MetricType = "oxygen_saturation"
	MetricBodyTemperature        MetricType = "body_temperature"
	MetricBloodGlucose           MetricType = "blood_glucose"
	MetricDailySteps             MetricType = "daily_steps"
	MetricHeartRateVariability   MetricType = "heart_rate_variability"
	MetricSleepDurationMinutes   MetricType = "sleep_duration_minutes"
	MetricWeight                 MetricType = "weight"
)

// ParseMetricType 从存储层字符串解析指标类型（损坏数据返回错误而不是 panic）
func ParseMetricType(s string) (MetricType, error) {
	switch MetricType(s) {
	case MetricHeartRate, MetricBloodPressureSystolic, MetricBloodPressureDiastolic,
		MetricOxygenSaturation, MetricBodyTemperature, MetricBloodGlucose,
		MetricDailySteps, MetricHeartRateVariability, MetricSleepDurationMinutes,
		MetricWeight:
		return MetricType(s), nil
	}
	return "", fmt.Errorf("unknown metric type: %q", s)
}

// Measurement 设备测量值（由数据接入层产生，本服务只读）
type Measurement struct {
	MeasurementID string     `json:"measurement_id" db:"measurement_id"`
	UserID        string     `json:"user_id" db:"user_id"`
	MetricType    MetricType `json:"metric_type" db:"metric_type"`
	Value         float64    `json:"value" db:"value"`
	Timestamp     time.Time  `json:"timestamp" db:"timestamp"`
	Source        *string    `json:"source,omitempty" db:"source"` // 设备来源，如 "Watch" / "BPMonitor"
}
