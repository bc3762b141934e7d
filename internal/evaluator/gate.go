package evaluator

import (
	"fmt"
	"time"

	"sensacare-alert/internal/models"
)

// IsRuleActiveNow 判断规则当前是否可触发
// 检查顺序固定：启用标志 → 星期限制 → 时段限制 → 冷却期
// 禁用的规则在任何时间计算之前短路返回，所以禁用规则上的非法时段配置不会报错
func IsRuleActiveNow(rule *models.ThresholdRule, now time.Time) bool {
	// 1. 启用标志
	if !rule.IsActive {
		return false
	}

	// 2. 星期限制（空列表表示每天生效）
	if len(rule.ActiveDays) > 0 {
		day := int(now.Weekday())
		found := false
		for _, d := range rule.ActiveDays {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// 3. 时段限制
	if rule.TimeRestrictionStart != nil && rule.TimeRestrictionEnd != nil {
		if !inTimeWindow(*rule.TimeRestrictionStart, *rule.TimeRestrictionEnd, now) {
			return false
		}
	}

	// 4. 冷却期
	if rule.LastTriggeredAt != nil && rule.CooldownMinutes > 0 {
		elapsed := now.Sub(*rule.LastTriggeredAt).Minutes()
		if elapsed < float64(rule.CooldownMinutes) {
			return false
		}
	}

	return true
}

// inTimeWindow 判断当前本地时间是否落在 [start, end] 时段内（两端含）
// start > end 表示跨午夜时段（如 22:00–06:00）
// 任一端解析失败按"无时段限制"处理，避免配置错误悄悄禁用安全规则
func inTimeWindow(start, end string, now time.Time) bool {
	startMin, err := ParseClock(start)
	if err != nil {
		return true
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return true
	}

	nowMin := now.Hour()*60 + now.Minute()

	if startMin > endMin {
		// 跨午夜
		return nowMin >= startMin || nowMin <= endMin
	}
	return nowMin >= startMin && nowMin <= endMin
}

// ParseClock 解析 "HH:MM" 为当日分钟数
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}
	return h*60 + m, nil
}
