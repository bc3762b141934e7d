package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"sensacare-alert/internal/models"
)

// ErrTransitionConflict 守护更新未命中：状态已被并发修改或迁移前置状态不满足
var ErrTransitionConflict = errors.New("alert status changed concurrently")

// AlertRepository 报警记录仓库
type AlertRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertRepository 创建报警记录仓库
func NewAlertRepository(db *sql.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// AlertFilters 报警查询过滤条件
type AlertFilters struct {
	Statuses         []models.AlertStatus // 状态列表（IN 查询）
	Severities       []models.Severity    // 级别列表（IN 查询）
	AlertType        *models.AlertType
	IncludeDismissed bool // 默认不含已隐藏报警
	StartTime        *time.Time
	EndTime          *time.Time
	Limit            int
}

const alertColumns = `
		alert_id, user_id, alert_type, severity, title, message, recommendation,
		timestamp, measurement_id, rule_id, trigger_data,
		status, is_emergency, is_dismissed,
		emergency_contacts_notified, notified_contact_ids,
		acknowledged_at, user_response, time_to_acknowledge_minutes,
		resolved_at, resolution,
		escalated_at, escalation_level, escalated_to_contact_ids,
		requires_medical_review, reviewed_by, reviewed_at, review_notes,
		created_at, updated_at`

// CreateAlert 写入新报警
func (r *AlertRepository) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}
	if a.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `
	INSERT INTO alerts (
		alert_id, user_id, alert_type, severity, title, message, recommendation,
		timestamp, measurement_id, rule_id, trigger_data,
		status, is_emergency, is_dismissed,
		emergency_contacts_notified, notified_contact_ids,
		acknowledged_at, user_response, time_to_acknowledge_minutes,
		resolved_at, resolution,
		escalated_at, escalation_level, escalated_to_contact_ids,
		requires_medical_review, reviewed_by, reviewed_at, review_notes,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
	)`

	_, err := r.db.ExecContext(ctx, query,
		a.AlertID, a.UserID, string(a.AlertType), string(a.Severity),
		a.Title, a.Message, a.Recommendation,
		a.Timestamp, a.MeasurementID, a.RuleID, a.TriggerData,
		string(a.Status), a.IsEmergency, a.IsDismissed,
		a.EmergencyContactsNotified, pq.Array(a.NotifiedContactIDs),
		a.AcknowledgedAt, a.UserResponse, a.TimeToAcknowledgeMinutes,
		a.ResolvedAt, a.Resolution,
		a.EscalatedAt, a.EscalationLevel, pq.Array(a.EscalatedToContactIDs),
		a.RequiresMedicalReview, a.ReviewedBy, a.ReviewedAt, a.ReviewNotes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetAlert 根据 alert_id 获取单条报警（需验证 user_id）
func (r *AlertRepository) GetAlert(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	query := `SELECT` + alertColumns + `
	FROM alerts
	WHERE alert_id = $1 AND user_id = $2`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, alertID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alert not found: %s", alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return a, nil
}

// ListAlerts 按过滤条件查询用户报警（时间倒序）
func (r *AlertRepository) ListAlerts(ctx context.Context, userID string, filters AlertFilters) ([]models.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	var conditions []string
	var args []interface{}

	args = append(args, userID)
	conditions = append(conditions, "user_id = $1")

	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	if len(filters.Severities) > 0 {
		severities := make([]string, len(filters.Severities))
		for i, s := range filters.Severities {
			severities[i] = string(s)
		}
		args = append(args, pq.Array(severities))
		conditions = append(conditions, fmt.Sprintf("severity = ANY($%d)", len(args)))
	}

	if filters.AlertType != nil {
		args = append(args, string(*filters.AlertType))
		conditions = append(conditions, fmt.Sprintf("alert_type = $%d", len(args)))
	}

	if !filters.IncludeDismissed {
		conditions = append(conditions, "is_dismissed = FALSE")
	}

	if filters.StartTime != nil {
		args = append(args, *filters.StartTime)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}

	if filters.EndTime != nil {
		args = append(args, *filters.EndTime)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	query := `SELECT` + alertColumns + `
	FROM alerts
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY timestamp DESC`

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListEscalationCandidates 查询所有用户待升级的报警
// 非终态、未确认、未隐藏、未到 EMERGENCY 的报警才可能升级
func (r *AlertRepository) ListEscalationCandidates(ctx context.Context, limit int) ([]models.Alert, error) {
	query := `SELECT` + alertColumns + `
	FROM alerts
	WHERE status IN ('ACTIVE', 'ESCALATED')
	  AND acknowledged_at IS NULL
	  AND is_dismissed = FALSE
	  AND severity <> 'EMERGENCY'
	ORDER BY timestamp
	LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation candidates: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// SaveTransition 写回状态迁移结果（乐观并发守护）
// 仅当记录仍处于 fromStatuses 之一时更新；0 行命中返回 ErrTransitionConflict，
// 记录保持不变，并发的用户操作不会互相覆盖
func (r *AlertRepository) SaveTransition(ctx context.Context, a *models.Alert, fromStatuses []models.AlertStatus) error {
	if len(fromStatuses) == 0 {
		return fmt.Errorf("from statuses are required")
	}

	statuses := make([]string, len(fromStatuses))
	for i, s := range fromStatuses {
		statuses[i] = string(s)
	}

	query := `
	UPDATE alerts SET
		severity = $3,
		status = $4,
		is_emergency = $5,
		emergency_contacts_notified = $6,
		notified_contact_ids = $7,
		acknowledged_at = $8,
		user_response = $9,
		time_to_acknowledge_minutes = $10,
		resolved_at = $11,
		resolution = $12,
		escalated_at = $13,
		escalation_level = $14,
		escalated_to_contact_ids = $15,
		updated_at = $16
	WHERE alert_id = $1 AND user_id = $2 AND status = ANY($17)`

	result, err := r.db.ExecContext(ctx, query,
		a.AlertID, a.UserID,
		string(a.Severity), string(a.Status), a.IsEmergency,
		a.EmergencyContactsNotified, pq.Array(a.NotifiedContactIDs),
		a.AcknowledgedAt, a.UserResponse, a.TimeToAcknowledgeMinutes,
		a.ResolvedAt, a.Resolution,
		a.EscalatedAt, a.EscalationLevel, pq.Array(a.EscalatedToContactIDs),
		a.UpdatedAt,
		pq.Array(statuses),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert transition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: alert %s", ErrTransitionConflict, a.AlertID)
	}

	return nil
}

// SetDismissed 设置/清除隐藏标志（正交于状态机，不做状态守护）
func (r *AlertRepository) SetDismissed(ctx context.Context, userID, alertID string, dismissed bool) error {
	query := `
	UPDATE alerts SET is_dismissed = $3, updated_at = NOW()
	WHERE alert_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, alertID, userID, dismissed)
	if err != nil {
		return fmt.Errorf("failed to set dismissed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}

// SaveMedicalReview 写回医疗复核字段（任何状态均允许，含终态）
func (r *AlertRepository) SaveMedicalReview(ctx context.Context, a *models.Alert) error {
	query := `
	UPDATE alerts SET
		requires_medical_review = $3,
		reviewed_by = $4,
		reviewed_at = $5,
		review_notes = $6,
		updated_at = $7
	WHERE alert_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		a.AlertID, a.UserID,
		a.RequiresMedicalReview, a.ReviewedBy, a.ReviewedAt, a.ReviewNotes,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save medical review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", a.AlertID)
	}

	return nil
}

// DeleteTerminalBefore 清理保留期外的终态报警（仅用户主动清理时调用）
func (r *AlertRepository) DeleteTerminalBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user_id is required")
	}

	query := `
	DELETE FROM alerts
	WHERE user_id = $1
	  AND status IN ('RESOLVED', 'FALSE_ALARM')
	  AND timestamp < $2`

	result, err := r.db.ExecContext(ctx, query, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal alerts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	r.logger.Info("Deleted terminal alerts",
		zap.String("user_id", userID),
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)

	return deleted, nil
}

// collectAlerts 收集查询结果
func collectAlerts(rows *sql.Rows) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// scanAlert 扫描单行报警并在存储边界解析枚举
func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var alertType, severity, status string
	var notifiedIDs, escalatedIDs pq.StringArray

	err := row.Scan(
		&a.AlertID, &a.UserID, &alertType, &severity,
		&a.Title, &a.Message, &a.Recommendation,
		&a.Timestamp, &a.MeasurementID, &a.RuleID, &a.TriggerData,
		&status, &a.IsEmergency, &a.IsDismissed,
		&a.EmergencyContactsNotified, &notifiedIDs,
		&a.AcknowledgedAt, &a.UserResponse, &a.TimeToAcknowledgeMinutes,
		&a.ResolvedAt, &a.Resolution,
		&a.EscalatedAt, &a.EscalationLevel, &escalatedIDs,
		&a.RequiresMedicalReview, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNotes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.AlertType, err = models.ParseAlertType(alertType); err != nil {
		return nil, err
	}
	if a.Severity, err = models.ParseSeverity(severity); err != nil {
		return nil, err
	}
	if a.Status, err = models.ParseAlertStatus(status); err != nil {
		return nil, err
	}

	a.NotifiedContactIDs = []string(notifiedIDs)
	a.EscalatedToContactIDs = []string(escalatedIDs)

	return &a, nil
}
