package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sensacare-alert/internal/models"
)

func f64(v float64) *float64 {
	return &v
}

func TestAchievementPercentage_IncrementalWithStart(t *testing.T) {
	// 从 2000 步提升到 10000 步，当前 6000：走过一半
	got := AchievementPercentage(6000, 10000, f64(2000), true)
	assert.InDelta(t, 50.0, got, 0.001)
}

func TestAchievementPercentage_DecrementalWithStart(t *testing.T) {
	// 从 80kg 减到 70kg，当前 75kg：走过一半
	got := AchievementPercentage(75, 70, f64(80), false)
	assert.InDelta(t, 50.0, got, 0.001)
}

func TestAchievementPercentage_DegenerateSpanIsAchieved(t *testing.T) {
	// 起始值已在目标处（跨度为零）
	assert.Equal(t, 100.0, AchievementPercentage(70, 70, f64(70), false))

	// 起始值已越过目标（跨度为负）
	assert.Equal(t, 100.0, AchievementPercentage(72, 70, f64(75), true))
}

func TestAchievementPercentage_NoStartValue(t *testing.T) {
	// 无起始值时按当前值相对目标计算
	assert.InDelta(t, 60.0, AchievementPercentage(6000, 10000, nil, true), 0.001)

	// 目标为零时视为已达成，绝不除零
	assert.Equal(t, 100.0, AchievementPercentage(5, 0, nil, true))
}

func TestAchievementPercentage_Clamped(t *testing.T) {
	// 超额完成封顶 100
	assert.Equal(t, 100.0, AchievementPercentage(12000, 10000, f64(2000), true))
	// 倒退不出现负数
	assert.Equal(t, 0.0, AchievementPercentage(1000, 10000, f64(2000), true))
}

func TestIsAchieved(t *testing.T) {
	assert.True(t, IsAchieved(10000, 10000, true))
	assert.True(t, IsAchieved(10500, 10000, true))
	assert.False(t, IsAchieved(9999, 10000, true))

	assert.True(t, IsAchieved(70, 70, false))
	assert.True(t, IsAchieved(69, 70, false))
	assert.False(t, IsAchieved(71, 70, false))
}

func TestUpdateStreak_FirstUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	current, longest := UpdateStreak(0, 0, true, nil, now)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)

	current, longest = UpdateStreak(0, 0, false, nil, now)
	assert.Equal(t, 0, current)
	assert.Equal(t, 0, longest)
}

func TestUpdateStreak_ConsecutiveDays(t *testing.T) {
	yesterday := time.Date(2026, 2, 28, 21, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	// 隔一个日历日即连续，与具体钟点无关
	current, longest := UpdateStreak(5, 5, true, &yesterday, today)
	assert.Equal(t, 6, current)
	assert.Equal(t, 6, longest)
}

func TestUpdateStreak_SameDayIsIdempotent(t *testing.T) {
	morning := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	current, longest := UpdateStreak(5, 8, true, &morning, evening)
	assert.Equal(t, 5, current)
	assert.Equal(t, 8, longest)
}

func TestUpdateStreak_GapRestartsFromOne(t *testing.T) {
	lastWeek := time.Date(2026, 2, 22, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	current, longest := UpdateStreak(5, 8, true, &lastWeek, today)
	assert.Equal(t, 1, current)
	assert.Equal(t, 8, longest, "longest streak is preserved")
}

func TestUpdateStreak_MissResetsToZero(t *testing.T) {
	yesterday := time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	current, longest := UpdateStreak(5, 8, false, &yesterday, today)
	assert.Equal(t, 0, current)
	assert.Equal(t, 8, longest)
}

func TestTrendDirection(t *testing.T) {
	// 少于 2 个值无从判断
	assert.Equal(t, models.TrendStable, TrendDirection(nil, false))
	assert.Equal(t, models.TrendStable, TrendDirection([]float64{5}, false))

	// 平均增量超过 0.01 才算方向
	assert.Equal(t, models.TrendUp, TrendDirection([]float64{1, 2, 3}, false))
	assert.Equal(t, models.TrendDown, TrendDirection([]float64{3, 2, 1}, false))
	assert.Equal(t, models.TrendStable, TrendDirection([]float64{1.000, 1.005, 1.002}, false))
}

func TestTrendDirection_InverseGoal(t *testing.T) {
	// 减重目标：体重下降是向好（UP）
	assert.Equal(t, models.TrendUp, TrendDirection([]float64{80, 78, 76}, true))
	assert.Equal(t, models.TrendDown, TrendDirection([]float64{76, 78, 80}, true))
}
