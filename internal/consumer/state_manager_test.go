package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sensacare-alert/internal/config"
)

func setupStateManager(t *testing.T) (*StateManager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Alert.Cache.StateKeyPrefix = "alert:occurrence:"

	return NewStateManager(cfg, client, zap.NewNop()), mr
}

func TestGetStateKey(t *testing.T) {
	sm, _ := setupStateManager(t)

	key := sm.GetStateKey("user-1", "rule-9")
	assert.Equal(t, "alert:occurrence:user-1:rule_rule-9", key)
}

func TestStateRoundTrip(t *testing.T) {
	sm, _ := setupStateManager(t)
	ctx := context.Background()
	key := sm.GetStateKey("user-1", "rule-1")

	state := &OccurrenceState{Timestamps: []int64{100, 200, 300}}
	require.NoError(t, sm.SetState(ctx, key, state, time.Minute))

	var got OccurrenceState
	require.NoError(t, sm.GetState(ctx, key, &got))
	assert.Equal(t, []int64{100, 200, 300}, got.Timestamps)
}

func TestGetState_NotFound(t *testing.T) {
	sm, _ := setupStateManager(t)

	var got OccurrenceState
	err := sm.GetState(context.Background(), "alert:occurrence:nobody:rule_none", &got)
	require.ErrorIs(t, err, ErrStateNotFound)
}

func TestDeleteState(t *testing.T) {
	sm, _ := setupStateManager(t)
	ctx := context.Background()
	key := sm.GetStateKey("user-1", "rule-1")

	require.NoError(t, sm.SetState(ctx, key, &OccurrenceState{Timestamps: []int64{1}}, time.Minute))
	require.NoError(t, sm.DeleteState(ctx, key))

	exists, err := sm.ExistsState(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// 删除不存在的键不是错误
	require.NoError(t, sm.DeleteState(ctx, key))
}

func TestSetState_TTLExpires(t *testing.T) {
	sm, mr := setupStateManager(t)
	ctx := context.Background()
	key := sm.GetStateKey("user-1", "rule-1")

	require.NoError(t, sm.SetState(ctx, key, &OccurrenceState{Timestamps: []int64{1}}, 30*time.Second))

	mr.FastForward(31 * time.Second)

	var got OccurrenceState
	err := sm.GetState(ctx, key, &got)
	require.ErrorIs(t, err, ErrStateNotFound)
}
