package evaluator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"sensacare-alert/internal/consumer"
	"sensacare-alert/internal/models"
)

// defaultStateTTL consecutive 策略累计状态的保底过期时间
const defaultStateTTL = 24 * time.Hour

// OccurrenceTracker 触发累计跟踪器
// occurrencesRequired > 1 的规则需要累计多次满足条件的测量才触发，
// 滚动窗口按 (user, rule) 隔离存放在 Redis（服务重启不丢累计）
type OccurrenceTracker struct {
	stateManager *consumer.StateManager
	logger       *zap.Logger
}

// NewOccurrenceTracker 创建触发累计跟踪器
func NewOccurrenceTracker(stateManager *consumer.StateManager, logger *zap.Logger) *OccurrenceTracker {
	return &OccurrenceTracker{
		stateManager: stateManager,
		logger:       logger,
	}
}

// Record 记录一次评估结果，返回累计是否已满足触发要求
// consecutive 策略：一次不满足即清空累计；windowed 策略：只淘汰窗口外的旧记录
// 满足要求时清空累计，下一轮重新开始
func (t *OccurrenceTracker) Record(ctx context.Context, rule *models.ThresholdRule, measuredAt time.Time, qualified bool) (bool, error) {
	required := rule.OccurrencesRequired
	if required <= 1 {
		return qualified, nil
	}

	key := t.stateManager.GetStateKey(rule.UserID, rule.RuleID)

	if !qualified {
		if rule.OccurrencePolicy == models.OccurrenceConsecutive {
			if err := t.stateManager.DeleteState(ctx, key); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	var state consumer.OccurrenceState
	if err := t.stateManager.GetState(ctx, key, &state); err != nil {
		if !errors.Is(err, consumer.ErrStateNotFound) {
			return false, err
		}
		state = consumer.OccurrenceState{}
	}

	state.Timestamps = append(state.Timestamps, measuredAt.Unix())

	if rule.OccurrencePolicy == models.OccurrenceWindowed && rule.TimeWindowMinutes > 0 {
		cutoff := measuredAt.Add(-time.Duration(rule.TimeWindowMinutes) * time.Minute).Unix()
		kept := state.Timestamps[:0]
		for _, ts := range state.Timestamps {
			if ts >= cutoff {
				kept = append(kept, ts)
			}
		}
		state.Timestamps = kept
	}

	if len(state.Timestamps) >= required {
		if err := t.stateManager.DeleteState(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}

	ttl := defaultStateTTL
	if rule.OccurrencePolicy == models.OccurrenceWindowed && rule.TimeWindowMinutes > 0 {
		ttl = time.Duration(rule.TimeWindowMinutes) * time.Minute
	}

	if err := t.stateManager.SetState(ctx, key, &state, ttl); err != nil {
		return false, err
	}

	t.logger.Debug("Occurrence recorded",
		zap.String("rule_id", rule.RuleID),
		zap.Int("accumulated", len(state.Timestamps)),
		zap.Int("required", required),
	)

	return false, nil
}
