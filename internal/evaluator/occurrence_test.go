package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sensacare-alert/internal/config"
	"sensacare-alert/internal/consumer"
	"sensacare-alert/internal/models"
)

func newTestTracker(t *testing.T) (*OccurrenceTracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Alert.Cache.StateKeyPrefix = "alert:occurrence:"

	stateManager := consumer.NewStateManager(cfg, client, zap.NewNop())
	return NewOccurrenceTracker(stateManager, zap.NewNop()), mr
}

func occurrenceRule(required int, policy models.OccurrencePolicy, windowMinutes int) *models.ThresholdRule {
	return &models.ThresholdRule{
		RuleID:              "rule-1",
		UserID:              "user-1",
		OccurrencesRequired: required,
		OccurrencePolicy:    policy,
		TimeWindowMinutes:   windowMinutes,
	}
}

func TestOccurrenceTracker_SingleOccurrencePassesThrough(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(1, models.OccurrenceConsecutive, 0)

	satisfied, err := tracker.Record(ctx, rule, time.Now(), true)
	require.NoError(t, err)
	require.True(t, satisfied)

	satisfied, err = tracker.Record(ctx, rule, time.Now(), false)
	require.NoError(t, err)
	require.False(t, satisfied)
}

func TestOccurrenceTracker_ConsecutiveAccumulates(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(3, models.OccurrenceConsecutive, 0)
	now := time.Now()

	for i := 0; i < 2; i++ {
		satisfied, err := tracker.Record(ctx, rule, now.Add(time.Duration(i)*time.Minute), true)
		require.NoError(t, err)
		require.False(t, satisfied, "occurrence %d of 3", i+1)
	}

	satisfied, err := tracker.Record(ctx, rule, now.Add(2*time.Minute), true)
	require.NoError(t, err)
	require.True(t, satisfied, "third consecutive occurrence triggers")
}

func TestOccurrenceTracker_ConsecutiveResetOnMiss(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(3, models.OccurrenceConsecutive, 0)
	now := time.Now()

	_, err := tracker.Record(ctx, rule, now, true)
	require.NoError(t, err)
	_, err = tracker.Record(ctx, rule, now.Add(time.Minute), true)
	require.NoError(t, err)

	// 一次不满足即清空累计
	satisfied, err := tracker.Record(ctx, rule, now.Add(2*time.Minute), false)
	require.NoError(t, err)
	require.False(t, satisfied)

	// 重新从头累计
	satisfied, err = tracker.Record(ctx, rule, now.Add(3*time.Minute), true)
	require.NoError(t, err)
	require.False(t, satisfied)
	satisfied, err = tracker.Record(ctx, rule, now.Add(4*time.Minute), true)
	require.NoError(t, err)
	require.False(t, satisfied)
	satisfied, err = tracker.Record(ctx, rule, now.Add(5*time.Minute), true)
	require.NoError(t, err)
	require.True(t, satisfied)
}

func TestOccurrenceTracker_WindowedSurvivesMisses(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(3, models.OccurrenceWindowed, 30)
	now := time.Now()

	_, err := tracker.Record(ctx, rule, now, true)
	require.NoError(t, err)
	_, err = tracker.Record(ctx, rule, now.Add(time.Minute), true)
	require.NoError(t, err)

	// windowed 策略下一次不满足不清空累计
	satisfied, err := tracker.Record(ctx, rule, now.Add(2*time.Minute), false)
	require.NoError(t, err)
	require.False(t, satisfied)

	satisfied, err = tracker.Record(ctx, rule, now.Add(3*time.Minute), true)
	require.NoError(t, err)
	require.True(t, satisfied)
}

func TestOccurrenceTracker_WindowedExpiresOldOccurrences(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(3, models.OccurrenceWindowed, 30)
	now := time.Now()

	// 两条窗口外的旧记录 + 一条新记录：不触发
	_, err := tracker.Record(ctx, rule, now.Add(-45*time.Minute), true)
	require.NoError(t, err)
	_, err = tracker.Record(ctx, rule, now.Add(-40*time.Minute), true)
	require.NoError(t, err)

	satisfied, err := tracker.Record(ctx, rule, now, true)
	require.NoError(t, err)
	require.False(t, satisfied, "old occurrences fell out of the window")
}

func TestOccurrenceTracker_ResetsAfterTrigger(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()
	rule := occurrenceRule(2, models.OccurrenceConsecutive, 0)
	now := time.Now()

	_, err := tracker.Record(ctx, rule, now, true)
	require.NoError(t, err)
	satisfied, err := tracker.Record(ctx, rule, now.Add(time.Minute), true)
	require.NoError(t, err)
	require.True(t, satisfied)

	// 触发后累计清空，Redis 中无残留状态
	require.False(t, mr.Exists("alert:occurrence:user-1:rule_rule-1"))

	satisfied, err = tracker.Record(ctx, rule, now.Add(2*time.Minute), true)
	require.NoError(t, err)
	require.False(t, satisfied, "accumulation restarts after a trigger")
}
