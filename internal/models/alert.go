package models

import (
	"fmt"
	"time"
)

// Severity 报警级别（四级全序：LOW < MEDIUM < HIGH < EMERGENCY）
type Severity string

const (
	SeverityLow       Severity = "LOW"
	SeverityMedium    Severity = "MEDIUM"
	SeverityHigh      Severity = "HIGH"
	SeverityEmergency Severity = "EMERGENCY"
)

// ParseSeverity 从存储层字符串解析报警级别
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityEmergency:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// Rank 返回级别序号（用于全序比较），未知级别按最低处理
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityEmergency:
		return 3
	}
	return 0
}

// MaxSeverity 返回两个级别中较高者
func MaxSeverity(a, b Severity) Severity {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// AlertStatus 报警状态
type AlertStatus string

const (
	StatusNew          AlertStatus = "NEW"       // 创建瞬间的过渡状态，不落库
	StatusActive       AlertStatus = "ACTIVE"
	StatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	StatusResolved     AlertStatus = "RESOLVED"
	StatusFalseAlarm   AlertStatus = "FALSE_ALARM"
	StatusEscalated    AlertStatus = "ESCALATED"
)

// ParseAlertStatus 从存储层字符串解析报警状态
func ParseAlertStatus(s string) (AlertStatus, error) {
	switch AlertStatus(s) {
	case StatusNew, StatusActive, StatusAcknowledged, StatusResolved,
		StatusFalseAlarm, StatusEscalated:
		return AlertStatus(s), nil
	}
	return "", fmt.Errorf("unknown alert status: %q", s)
}

// IsTerminal 是否终态（终态后禁止任何自动升级）
func (s AlertStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusFalseAlarm
}

// Alert 报警记录（对应 alerts 表）
type Alert struct {
	AlertID string `json:"alert_id" db:"alert_id"`
	UserID  string `json:"user_id" db:"user_id"`

	AlertType AlertType `json:"alert_type" db:"alert_type"`
	Severity  Severity  `json:"severity" db:"severity"`

	// 展示内容
	Title          string `json:"title" db:"title"`
	Message        string `json:"message" db:"message"`
	Recommendation string `json:"recommendation" db:"recommendation"`

	// 创建时间（不可变）
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// 触发来源
	MeasurementID *string `json:"measurement_id,omitempty" db:"measurement_id"`
	RuleID        *string `json:"rule_id,omitempty" db:"rule_id"`
	TriggerData   string  `json:"trigger_data" db:"trigger_data"` // JSONB 触发快照

	// 状态机
	Status      AlertStatus `json:"status" db:"status"`
	IsEmergency bool        `json:"is_emergency" db:"is_emergency"` // 派生：severity == EMERGENCY
	IsDismissed bool        `json:"is_dismissed" db:"is_dismissed"` // 正交标志，不参与状态机

	// 紧急联系人通知
	EmergencyContactsNotified bool     `json:"emergency_contacts_notified" db:"emergency_contacts_notified"`
	NotifiedContactIDs        []string `json:"notified_contact_ids,omitempty" db:"notified_contact_ids"`

	// 确认
	AcknowledgedAt           *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	UserResponse             *string    `json:"user_response,omitempty" db:"user_response"`
	TimeToAcknowledgeMinutes *int       `json:"time_to_acknowledge_minutes,omitempty" db:"time_to_acknowledge_minutes"`

	// 解决
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	Resolution *string    `json:"resolution,omitempty" db:"resolution"`

	// 升级
	EscalatedAt           *time.Time `json:"escalated_at,omitempty" db:"escalated_at"`
	EscalationLevel       int        `json:"escalation_level" db:"escalation_level"`
	EscalatedToContactIDs []string   `json:"escalated_to_contact_ids,omitempty" db:"escalated_to_contact_ids"`

	// 医疗复核（任何状态下均可设置）
	RequiresMedicalReview bool       `json:"requires_medical_review" db:"requires_medical_review"`
	ReviewedBy            *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt            *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewNotes           *string    `json:"review_notes,omitempty" db:"review_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TriggerData 触发数据快照（JSONB 结构）
type TriggerData struct {
	MetricType         MetricType        `json:"metric_type"`
	Value              float64           `json:"value"`
	Threshold          float64           `json:"threshold"`
	SecondaryThreshold *float64          `json:"secondary_threshold,omitempty"`
	Operator           ConditionOperator `json:"operator"`
	DeviationPct       float64           `json:"deviation_pct"`
	MeasuredAt         int64             `json:"measured_at"` // Unix 时间戳
	Source             *string           `json:"source,omitempty"`
}
