package lifecycle

import (
	"time"

	"sensacare-alert/internal/models"
)

// 未确认报警的升级等待时间（按当前级别分档）
const (
	escalateAfterHigh   = 30 * time.Minute
	escalateAfterMedium = 60 * time.Minute
	escalateAfterLow    = 120 * time.Minute
)

// ShouldEscalate 判断未确认报警是否到达升级时点
// 已确认或已是 EMERGENCY 的报警不再升级；终态报警永不升级
// 调用方是周期巡检（外部调度），本函数只做纯判定
func ShouldEscalate(a *models.Alert, now time.Time) bool {
	if a.Status.IsTerminal() {
		return false
	}
	if a.Status == models.StatusAcknowledged || a.AcknowledgedAt != nil {
		return false
	}
	if a.Severity == models.SeverityEmergency {
		return false
	}

	elapsed := now.Sub(a.Timestamp)
	switch a.Severity {
	case models.SeverityHigh:
		return elapsed >= escalateAfterHigh
	case models.SeverityMedium:
		return elapsed >= escalateAfterMedium
	case models.SeverityLow:
		return elapsed >= escalateAfterLow
	}
	return false
}

// EscalatedSeverity 返回升级后的级别：LOW→MEDIUM→HIGH→EMERGENCY，顶格幂等
func EscalatedSeverity(s models.Severity) models.Severity {
	switch s {
	case models.SeverityLow:
		return models.SeverityMedium
	case models.SeverityMedium:
		return models.SeverityHigh
	case models.SeverityHigh:
		return models.SeverityEmergency
	case models.SeverityEmergency:
		return models.SeverityEmergency
	}
	return s
}
