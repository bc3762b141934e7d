package models

import (
	"fmt"
	"time"
)

// ConditionOperator 阈值条件运算符
type ConditionOperator string

const (
	OperatorAbove    ConditionOperator = "ABOVE"
	OperatorBelow    ConditionOperator = "BELOW"
	OperatorEqual    ConditionOperator = "EQUAL"
	OperatorNotEqual ConditionOperator = "NOT_EQUAL"
	OperatorBetween  ConditionOperator = "BETWEEN"
	OperatorOutside  ConditionOperator = "OUTSIDE"
)

// ParseConditionOperator 从存储层字符串解析条件运算符
func ParseConditionOperator(s string) (ConditionOperator, error) {
	switch ConditionOperator(s) {
	case OperatorAbove, OperatorBelow, OperatorEqual, OperatorNotEqual,
		OperatorBetween, OperatorOutside:
		return ConditionOperator(s), nil
	}
	return "", fmt.Errorf("unknown condition operator: %q", s)
}

// OccurrencePolicy 多次触发累计策略
// consecutive: 连续 N 次满足条件才触发，中途一次不满足即清零
// windowed: 时间窗口内累计 N 次满足条件即触发
type OccurrencePolicy string

const (
	OccurrenceConsecutive OccurrencePolicy = "consecutive"
	OccurrenceWindowed    OccurrencePolicy = "windowed"
)

// ParseOccurrencePolicy 从存储层字符串解析累计策略（空串取默认 consecutive）
func ParseOccurrencePolicy(s string) (OccurrencePolicy, error) {
	switch OccurrencePolicy(s) {
	case OccurrenceConsecutive, OccurrenceWindowed:
		return OccurrencePolicy(s), nil
	case "":
		return OccurrenceConsecutive, nil
	}
	return "", fmt.Errorf("unknown occurrence policy: %q", s)
}

// AlertType 报警类型
type AlertType string

const (
	AlertHeartRateHigh     AlertType = "HEART_RATE_HIGH"
	AlertHeartRateLow      AlertType = "HEART_RATE_LOW"
	AlertBloodPressureHigh AlertType = "BLOOD_PRESSURE_HIGH"
	AlertBloodPressureLow  AlertType = "BLOOD_PRESSURE_LOW"
	AlertOxygenLow         AlertType = "OXYGEN_LOW"
	AlertTemperatureHigh   AlertType = "TEMPERATURE_HIGH"
	AlertTemperatureLow    AlertType = "TEMPERATURE_LOW"
	AlertGlucoseHigh       AlertType = "GLUCOSE_HIGH"
	AlertGlucoseLow        AlertType = "GLUCOSE_LOW"
	AlertActivityLow       AlertType = "ACTIVITY_LOW"
	AlertCustom            AlertType = "CUSTOM"
)

// ParseAlertType 从存储层字符串解析报警类型
func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case AlertHeartRateHigh, AlertHeartRateLow, AlertBloodPressureHigh,
		AlertBloodPressureLow, AlertOxygenLow, AlertTemperatureHigh,
		AlertTemperatureLow, AlertGlucoseHigh, AlertGlucoseLow,
		AlertActivityLow, AlertCustom:
		return AlertType(s), nil
	}
	return "", fmt.Errorf("unknown alert type: %q", s)
}

// ThresholdRule 阈值规则（对应 threshold_rules 表）
// 用户自定义或系统默认的报警条件
type ThresholdRule struct {
	RuleID     string     `json:"rule_id" db:"rule_id"`
	UserID     string     `json:"user_id" db:"user_id"`
	MetricType MetricType `json:"metric_type" db:"metric_type"`

	// 条件定义
	ConditionOperator       ConditionOperator `json:"condition_operator" db:"condition_operator"`
	ThresholdValue          float64           `json:"threshold_value" db:"threshold_value"`
	SecondaryThresholdValue *float64          `json:"secondary_threshold_value,omitempty" db:"secondary_threshold_value"` // BETWEEN/OUTSIDE 必填

	// 报警内容
	AlertType            AlertType `json:"alert_type" db:"alert_type"`
	DefaultSeverity      Severity  `json:"default_severity" db:"default_severity"`
	CustomTitle          *string   `json:"custom_title,omitempty" db:"custom_title"`
	CustomMessage        *string   `json:"custom_message,omitempty" db:"custom_message"`
	CustomRecommendation *string   `json:"custom_recommendation,omitempty" db:"custom_recommendation"`

	// 触发累计
	OccurrencesRequired int              `json:"occurrences_required" db:"occurrences_required"` // 默认 1
	OccurrencePolicy    OccurrencePolicy `json:"occurrence_policy" db:"occurrence_policy"`
	TimeWindowMinutes   int              `json:"time_window_minutes" db:"time_window_minutes"` // windowed 策略的窗口长度

	// 触发节流
	CooldownMinutes int `json:"cooldown_minutes" db:"cooldown_minutes"`

	// 生效限制
	IsActive             bool    `json:"is_active" db:"is_active"`
	ActiveDays           []int   `json:"active_days,omitempty" db:"active_days"` // 0=周日 ... 6=周六，空表示每天
	TimeRestrictionStart *string `json:"time_restriction_start,omitempty" db:"time_restriction_start"` // "HH:MM"
	TimeRestrictionEnd   *string `json:"time_restriction_end,omitempty" db:"time_restriction_end"`     // "HH:MM"

	// 触发记录
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	TriggerCount    int        `json:"trigger_count" db:"trigger_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
