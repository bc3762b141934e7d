package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"sensacare-alert/internal/models"
)

// ThresholdRuleRepository 阈值规则仓库
type ThresholdRuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewThresholdRuleRepository 创建阈值规则仓库
func NewThresholdRuleRepository(db *sql.DB, logger *zap.Logger) *ThresholdRuleRepository {
	return &ThresholdRuleRepository{
		db:     db,
		logger: logger,
	}
}

const ruleColumns = `
		rule_id, user_id, metric_type, condition_operator, threshold_value,
		secondary_threshold_value, alert_type, default_severity,
		custom_title, custom_message, custom_recommendation,
		occurrences_required, occurrence_policy, time_window_minutes,
		cooldown_minutes, is_active, active_days,
		time_restriction_start, time_restriction_end,
		last_triggered_at, trigger_count, created_at, updated_at`

// GetRule 根据 rule_id 获取单条规则（需验证 user_id）
func (r *ThresholdRuleRepository) GetRule(ctx context.Context, userID, ruleID string) (*models.ThresholdRule, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if ruleID == "" {
		return nil, fmt.Errorf("rule_id is required")
	}

	query := `SELECT` + ruleColumns + `
	FROM threshold_rules
	WHERE rule_id = $1 AND user_id = $2`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, ruleID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("rule not found: %s", ruleID)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// ListActiveRules 获取用户在某指标下的全部启用规则
func (r *ThresholdRuleRepository) ListActiveRules(ctx context.Context, userID string, metric models.MetricType) ([]models.ThresholdRule, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `SELECT` + ruleColumns + `
	FROM threshold_rules
	WHERE user_id = $1 AND metric_type = $2 AND is_active = TRUE
	ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID, string(metric))
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ThresholdRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// CreateRule 创建规则（rule_id 为空时生成 UUID）
func (r *ThresholdRuleRepository) CreateRule(ctx context.Context, rule *models.ThresholdRule) error {
	if rule.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if rule.RuleID == "" {
		rule.RuleID = uuid.New().String()
	}
	if rule.OccurrencesRequired <= 0 {
		rule.OccurrencesRequired = 1
	}
	if rule.OccurrencePolicy == "" {
		rule.OccurrencePolicy = models.OccurrenceConsecutive
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
	INSERT INTO threshold_rules (
		rule_id, user_id, metric_type, condition_operator, threshold_value,
		secondary_threshold_value, alert_type, default_severity,
		custom_title, custom_message, custom_recommendation,
		occurrences_required, occurrence_policy, time_window_minutes,
		cooldown_minutes, is_active, active_days,
		time_restriction_start, time_restriction_end,
		last_triggered_at, trigger_count, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
	)`

	_, err := r.db.ExecContext(ctx, query,
		rule.RuleID, rule.UserID, string(rule.MetricType),
		string(rule.ConditionOperator), rule.ThresholdValue,
		rule.SecondaryThresholdValue, string(rule.AlertType),
		string(rule.DefaultSeverity),
		rule.CustomTitle, rule.CustomMessage, rule.CustomRecommendation,
		rule.OccurrencesRequired, string(rule.OccurrencePolicy),
		rule.TimeWindowMinutes, rule.CooldownMinutes, rule.IsActive,
		pq.Array(rule.ActiveDays),
		rule.TimeRestrictionStart, rule.TimeRestrictionEnd,
		rule.LastTriggeredAt, rule.TriggerCount,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	r.logger.Info("Threshold rule created",
		zap.String("rule_id", rule.RuleID),
		zap.String("user_id", rule.UserID),
		zap.String("metric_type", string(rule.MetricType)),
		zap.String("alert_type", string(rule.AlertType)),
	)

	return nil
}

// UpdateRule 更新规则的条件与限制字段（触发记录由 MarkTriggered 单独维护）
func (r *ThresholdRuleRepository) UpdateRule(ctx context.Context, rule *models.ThresholdRule) error {
	if rule.RuleID == "" || rule.UserID == "" {
		return fmt.Errorf("rule_id and user_id are required")
	}

	query := `
	UPDATE threshold_rules SET
		condition_operator = $3,
		threshold_value = $4,
		secondary_threshold_value = $5,
		alert_type = $6,
		default_severity = $7,
		custom_title = $8,
		custom_message = $9,
		custom_recommendation = $10,
		occurrences_required = $11,
		occurrence_policy = $12,
		time_window_minutes = $13,
		cooldown_minutes = $14,
		is_active = $15,
		active_days = $16,
		time_restriction_start = $17,
		time_restriction_end = $18,
		updated_at = NOW()
	WHERE rule_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		rule.RuleID, rule.UserID,
		string(rule.ConditionOperator), rule.ThresholdValue,
		rule.SecondaryThresholdValue, string(rule.AlertType),
		string(rule.DefaultSeverity),
		rule.CustomTitle, rule.CustomMessage, rule.CustomRecommendation,
		rule.OccurrencesRequired, string(rule.OccurrencePolicy),
		rule.TimeWindowMinutes, rule.CooldownMinutes, rule.IsActive,
		pq.Array(rule.ActiveDays),
		rule.TimeRestrictionStart, rule.TimeRestrictionEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", rule.RuleID)
	}

	return nil
}

// SetRuleActive 启用/停用规则（软删除通过 is_active=false）
func (r *ThresholdRuleRepository) SetRuleActive(ctx context.Context, userID, ruleID string, active bool) error {
	query := `
	UPDATE threshold_rules SET is_active = $3, updated_at = NOW()
	WHERE rule_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, ruleID, userID, active)
	if err != nil {
		return fmt.Errorf("failed to set rule active: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", ruleID)
	}

	return nil
}

// DeleteRule 按 rule_id 硬删除规则
func (r *ThresholdRuleRepository) DeleteRule(ctx context.Context, userID, ruleID string) error {
	query := `DELETE FROM threshold_rules WHERE rule_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, ruleID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", ruleID)
	}

	return nil
}

// MarkTriggered 记录一次触发（原子读-改-写：自增计数避免并发丢更新）
func (r *ThresholdRuleRepository) MarkTriggered(ctx context.Context, userID, ruleID string, triggeredAt time.Time) error {
	query := `
	UPDATE threshold_rules SET
		last_triggered_at = $3,
		trigger_count = trigger_count + 1,
		updated_at = NOW()
	WHERE rule_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, ruleID, userID, triggeredAt)
	if err != nil {
		return fmt.Errorf("failed to mark rule triggered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", ruleID)
	}

	return nil
}

// rowScanner QueryRow 与 Rows 的公共扫描接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRule 扫描单行规则并在存储边界解析枚举（损坏数据返回错误而不是 panic）
func scanRule(row rowScanner) (*models.ThresholdRule, error) {
	var rule models.ThresholdRule
	var metricType, operator, alertType, severity, policy string
	var activeDays pq.Int64Array

	err := row.Scan(
		&rule.RuleID, &rule.UserID, &metricType, &operator, &rule.ThresholdValue,
		&rule.SecondaryThresholdValue, &alertType, &severity,
		&rule.CustomTitle, &rule.CustomMessage, &rule.CustomRecommendation,
		&rule.OccurrencesRequired, &policy, &rule.TimeWindowMinutes,
		&rule.CooldownMinutes, &rule.IsActive, &activeDays,
		&rule.TimeRestrictionStart, &rule.TimeRestrictionEnd,
		&rule.LastTriggeredAt, &rule.TriggerCount,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rule.MetricType, err = models.ParseMetricType(metricType); err != nil {
		return nil, err
	}
	if rule.ConditionOperator, err = models.ParseConditionOperator(operator); err != nil {
		return nil, err
	}
	if rule.AlertType, err = models.ParseAlertType(alertType); err != nil {
		return nil, err
	}
	if rule.DefaultSeverity, err = models.ParseSeverity(severity); err != nil {
		return nil, err
	}
	if rule.OccurrencePolicy, err = models.ParseOccurrencePolicy(policy); err != nil {
		return nil, err
	}

	for _, d := range activeDays {
		rule.ActiveDays = append(rule.ActiveDays, int(d))
	}

	return &rule, nil
}
