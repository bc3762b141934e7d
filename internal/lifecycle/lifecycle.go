package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"sensacare-alert/internal/models"
)

// ErrInvalidTransition 非法状态迁移（记录保持原样，由调用方以提示而非崩溃呈现）
var ErrInvalidTransition = errors.New("invalid alert state transition")

// Acknowledge 用户确认报警：ACTIVE/ESCALATED → ACKNOWLEDGED
// 记录确认时间、可选的用户反馈，并计算从创建到确认的分钟数
func Acknowledge(a *models.Alert, now time.Time, userResponse *string) error {
	if a.Status != models.StatusActive && a.Status != models.StatusEscalated {
		return fmt.Errorf("%w: cannot acknowledge alert in status %s", ErrInvalidTransition, a.Status)
	}

	minutes := int(now.Sub(a.Timestamp).Minutes())

	a.Status = models.StatusAcknowledged
	a.AcknowledgedAt = &now
	a.UserResponse = userResponse
	a.TimeToAcknowledgeMinutes = &minutes
	a.UpdatedAt = now
	return nil
}

// Resolve 解决报警：ACTIVE/ACKNOWLEDGED/ESCALATED → RESOLVED（终态）
// resolution 必填非空
func Resolve(a *models.Alert, now time.Time, resolution string) error {
	if resolution == "" {
		return fmt.Errorf("%w: resolution is required", ErrInvalidTransition)
	}
	switch a.Status {
	case models.StatusActive, models.StatusAcknowledged, models.StatusEscalated:
	default:
		return fmt.Errorf("%w: cannot resolve alert in status %s", ErrInvalidTransition, a.Status)
	}

	a.Status = models.StatusResolved
	a.ResolvedAt = &now
	a.Resolution = &resolution
	a.UpdatedAt = now
	return nil
}

// MarkFalseAlarm 标记误报：任意非终态 → FALSE_ALARM（终态）
// reason 记入 Resolution 作为误报原因
func MarkFalseAlarm(a *models.Alert, now time.Time, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: false-alarm reason is required", ErrInvalidTransition)
	}
	if a.Status.IsTerminal() {
		return fmt.Errorf("%w: alert already in terminal status %s", ErrInvalidTransition, a.Status)
	}

	a.Status = models.StatusFalseAlarm
	a.ResolvedAt = &now
	a.Resolution = &reason
	a.UpdatedAt = now
	return nil
}

// Escalate 自动升级：ACTIVE/ACKNOWLEDGED/ESCALATED → ESCALATED
// 提升级别、递增升级层数，并记录已通知的联系人
// 是否应当升级由 ShouldEscalate 判定，本函数只做迁移
func Escalate(a *models.Alert, now time.Time, contactIDs []string) error {
	switch a.Status {
	case models.StatusActive, models.StatusAcknowledged, models.StatusEscalated:
	default:
		return fmt.Errorf("%w: cannot escalate alert in status %s", ErrInvalidTransition, a.Status)
	}

	a.Severity = EscalatedSeverity(a.Severity)
	a.IsEmergency = a.Severity == models.SeverityEmergency
	a.Status = models.StatusEscalated
	a.EscalatedAt = &now
	a.EscalationLevel++
	if len(contactIDs) > 0 {
		a.EscalatedToContactIDs = contactIDs
		a.EmergencyContactsNotified = true
		a.NotifiedContactIDs = contactIDs
	}
	a.UpdatedAt = now
	return nil
}

// Dismiss 设置/清除隐藏标志（正交于状态机，任意状态可用，不报错）
func Dismiss(a *models.Alert, now time.Time, dismissed bool) {
	a.IsDismissed = dismissed
	a.UpdatedAt = now
}

// SetMedicalReview 设置医疗复核字段（终态报警也允许，状态机唯一的例外）
func SetMedicalReview(a *models.Alert, now time.Time, reviewedBy string, notes *string, requiresFollowUp bool) {
	a.RequiresMedicalReview = requiresFollowUp
	a.ReviewedBy = &reviewedBy
	a.ReviewedAt = &now
	a.ReviewNotes = notes
	a.UpdatedAt = now
}
