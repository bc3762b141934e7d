package evaluator

import (
	"math"

	"sensacare-alert/internal/models"
)

// CheckCondition 判断测量值是否满足规则的阈值条件
// 对任意有限/NaN/Inf 输入都是全函数：NaN 参与的比较一律为 false，绝不 panic
// BETWEEN/OUTSIDE 缺少次阈值时按"条件不满足"处理（配置问题由调用方记 warning）
func CheckCondition(value float64, rule *models.ThresholdRule) bool {
	threshold := rule.ThresholdValue
	if math.IsNaN(value) || math.IsNaN(threshold) {
		return false
	}

	switch rule.ConditionOperator {
	case models.OperatorAbove:
		return value > threshold
	case models.OperatorBelow:
		return value < threshold
	case models.OperatorEqual:
		return value == threshold
	case models.OperatorNotEqual:
		return value != threshold
	case models.OperatorBetween:
		if rule.SecondaryThresholdValue == nil || math.IsNaN(*rule.SecondaryThresholdValue) {
			return false
		}
		return threshold <= value && value <= *rule.SecondaryThresholdValue
	case models.OperatorOutside:
		if rule.SecondaryThresholdValue == nil || math.IsNaN(*rule.SecondaryThresholdValue) {
			return false
		}
		return value < threshold || value > *rule.SecondaryThresholdValue
	}

	// 未知运算符按不满足处理
	return false
}
