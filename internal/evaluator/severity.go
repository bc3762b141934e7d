package evaluator

import (
	"math"

	"sensacare-alert/internal/models"
)

// 绝对紧急阈值：无论规则阈值配置多宽松，越过这些临床红线一律 EMERGENCY
// 例：用户把心率上限设为 150，185 bpm 按偏差算只是"偏高"，但已越过红线
const (
	emergencyHeartRateHigh = 180.0 // bpm
	emergencyHeartRateLow  = 40.0  // bpm
	emergencySystolicHigh  = 180.0 // mmHg
	emergencyOxygenLow     = 90.0  // %
	emergencyTempHigh      = 39.5  // °C
	emergencyGlucoseLow    = 54.0  // mg/dL
	emergencyGlucoseHigh   = 250.0 // mg/dL
)

// DetermineSeverity 根据报警类型、测量值和规则阈值计算报警级别
// 纯函数，相同输入恒定输出
func DetermineSeverity(alertType models.AlertType, value, threshold float64) models.Severity {
	deviation := DeviationPercentage(alertType, value, threshold)

	// 绝对紧急阈值优先于偏差百分比
	if isAbsoluteEmergency(alertType, value) || deviation > 50 {
		return models.SeverityEmergency
	}
	if deviation > 30 {
		return models.SeverityHigh
	}
	if deviation > 15 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// DeviationPercentage 计算测量值相对阈值的偏差百分比
// "越高越危险"类型取正向偏差，"越低越危险"类型取反向偏差，其余取绝对值
func DeviationPercentage(alertType models.AlertType, value, threshold float64) float64 {
	switch alertType {
	case models.AlertHeartRateHigh, models.AlertBloodPressureHigh,
		models.AlertGlucoseHigh, models.AlertTemperatureHigh:
		return (value - threshold) / threshold * 100
	case models.AlertHeartRateLow, models.AlertBloodPressureLow,
		models.AlertGlucoseLow, models.AlertOxygenLow,
		models.AlertTemperatureLow:
		return (threshold - value) / threshold * 100
	}
	return math.Abs((value - threshold) / threshold * 100)
}

// isAbsoluteEmergency 判断测量值是否越过绝对临床红线
func isAbsoluteEmergency(alertType models.AlertType, value float64) bool {
	switch alertType {
	case models.AlertHeartRateHigh, models.AlertHeartRateLow:
		return value > emergencyHeartRateHigh || value < emergencyHeartRateLow
	case models.AlertBloodPressureHigh:
		return value > emergencySystolicHigh
	case models.AlertOxygenLow:
		return value < emergencyOxygenLow
	case models.AlertTemperatureHigh:
		return value > emergencyTempHigh
	case models.AlertGlucoseHigh, models.AlertGlucoseLow:
		return value < emergencyGlucoseLow || value > emergencyGlucoseHigh
	}
	return false
}
