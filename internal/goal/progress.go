package goal

import (
	"time"

	"sensacare-alert/internal/models"
)

// trendEpsilon 平均增量小于该值视为走平
const trendEpsilon = 0.01

// AchievementPercentage 计算目标达成百分比（0–100，截断）
// 有起始值时按已走过的跨度计算；跨度为零或负视为已达成（100%），绝不除零
func AchievementPercentage(current, target float64, start *float64, isIncremental bool) float64 {
	if start == nil {
		if target == 0 {
			return 100
		}
		if isIncremental {
			return clampPercentage(current / target * 100)
		}
		return clampPercentage((1 - current/target) * 100)
	}

	var span, progressed float64
	if isIncremental {
		span = target - *start
		progressed = current - *start
	} else {
		span = *start - target
		progressed = *start - current
	}
	if span <= 0 {
		return 100
	}
	return clampPercentage(progressed / span * 100)
}

// IsAchieved 判断目标是否达成
// 递增目标：current >= target；递减目标（如减重）：current <= target
func IsAchieved(current, target float64, isIncremental bool) bool {
	if isIncremental {
		return current >= target
	}
	return current <= target
}

// UpdateStreak 根据本次达成情况更新连续达成记录
// 与上次更新同日：不变（同日重复更新幂等）
// 恰好隔一日且达成：递增；隔多日达成：重新从 1 开始；未达成：清零
func UpdateStreak(currentStreak, longestStreak int, achieved bool, lastUpdated *time.Time, now time.Time) (int, int) {
	newStreak := currentStreak

	switch {
	case lastUpdated == nil:
		if achieved {
			newStreak = 1
		} else {
			newStreak = 0
		}
	case !achieved:
		newStreak = 0
	default:
		gap := daysBetween(*lastUpdated, now)
		switch {
		case gap == 0:
			// 同日重复更新，保持不变
		case gap == 1:
			newStreak = currentStreak + 1
		default:
			newStreak = 1
		}
	}

	if newStreak > longestStreak {
		longestStreak = newStreak
	}
	return newStreak, longestStreak
}

// TrendDirection 根据按时间排序的近期进度值计算趋势方向
// 取相邻差值的平均：|avg| < 0.01 → STABLE；isInverse 反转方向（递减目标下降是好事）
// 少于 2 个值无从判断趋势，返回 STABLE
func TrendDirection(recentValues []float64, isInverse bool) models.TrendDirection {
	if len(recentValues) < 2 {
		return models.TrendStable
	}

	var sum float64
	for i := 1; i < len(recentValues); i++ {
		sum += recentValues[i] - recentValues[i-1]
	}
	avg := sum / float64(len(recentValues)-1)

	if avg < trendEpsilon && avg > -trendEpsilon {
		return models.TrendStable
	}
	if (!isInverse && avg > 0) || (isInverse && avg < 0) {
		return models.TrendUp
	}
	return models.TrendDown
}

// daysBetween 计算两个时刻之间相差的日历天数（按各自时区的日期）
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	fromDate := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	toDate := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

func clampPercentage(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
