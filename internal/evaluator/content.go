package evaluator

import (
	"fmt"

	"sensacare-alert/internal/models"
)

// AlertContent 报警展示内容
type AlertContent struct {
	Title          string
	Message        string
	Recommendation string
}

// GenerateContent 根据报警类型、级别和测量值生成展示文案
// 规则上的自定义文案优先于内置文案
func GenerateContent(rule *models.ThresholdRule, severity models.Severity, value float64) AlertContent {
	content := defaultContent(rule.AlertType, severity, value, rule.ThresholdValue)

	if rule.CustomTitle != nil && *rule.CustomTitle != "" {
		content.Title = *rule.CustomTitle
	}
	if rule.CustomMessage != nil && *rule.CustomMessage != "" {
		content.Message = *rule.CustomMessage
	}
	if rule.CustomRecommendation != nil && *rule.CustomRecommendation != "" {
		content.Recommendation = *rule.CustomRecommendation
	}

	return content
}

// defaultContent 内置文案表
func defaultContent(alertType models.AlertType, severity models.Severity, value, threshold float64) AlertContent {
	var c AlertContent

	switch alertType {
	case models.AlertHeartRateHigh:
		c.Title = "High Heart Rate"
		c.Message = fmt.Sprintf("Your heart rate is %.0f bpm, above your limit of %.0f bpm.", value, threshold)
		c.Recommendation = "Sit down, rest, and breathe slowly. Avoid caffeine and exertion."
	case models.AlertHeartRateLow:
		c.Title = "Low Heart Rate"
		c.Message = fmt.Sprintf("Your heart rate is %.0f bpm, below your limit of %.0f bpm.", value, threshold)
		c.Recommendation = "If you feel dizzy or faint, sit down and contact your care provider."
	case models.AlertBloodPressureHigh:
		c.Title = "High Blood Pressure"
		c.Message = fmt.Sprintf("Your systolic blood pressure is %.0f mmHg, above your limit of %.0f mmHg.", value, threshold)
		c.Recommendation = "Rest quietly for 5 minutes and re-measure. Avoid salt and stress."
	case models.AlertBloodPressureLow:
		c.Title = "Low Blood Pressure"
		c.Message = fmt.Sprintf("Your blood pressure is %.0f mmHg, below your limit of %.0f mmHg.", value, threshold)
		c.Recommendation = "Drink water and rise slowly from sitting or lying positions."
	case models.AlertOxygenLow:
		c.Title = "Low Blood Oxygen"
		c.Message = fmt.Sprintf("Your oxygen saturation is %.0f%%, below your limit of %.0f%%.", value, threshold)
		c.Recommendation = "Sit upright and take slow deep breaths. Re-measure in a few minutes."
	case models.AlertTemperatureHigh:
		c.Title = "High Body Temperature"
		c.Message = fmt.Sprintf("Your body temperature is %.1f°C, above your limit of %.1f°C.", value, threshold)
		c.Recommendation = "Stay hydrated and rest. Consider fever-reducing medication if appropriate."
	case models.AlertTemperatureLow:
		c.Title = "Low Body Temperature"
		c.Message = fmt.Sprintf("Your body temperature is %.1f°C, below your limit of %.1f°C.", value, threshold)
		c.Recommendation = "Move to a warm environment and cover up. Re-measure shortly."
	case models.AlertGlucoseHigh:
		c.Title = "High Blood Glucose"
		c.Message = fmt.Sprintf("Your blood glucose is %.0f mg/dL, above your limit of %.0f mg/dL.", value, threshold)
		c.Recommendation = "Drink water and avoid carbohydrates. Follow your diabetes care plan."
	case models.AlertGlucoseLow:
		c.Title = "Low Blood Glucose"
		c.Message = fmt.Sprintf("Your blood glucose is %.0f mg/dL, below your limit of %.0f mg/dL.", value, threshold)
		c.Recommendation = "Take 15g of fast-acting carbohydrates and re-check in 15 minutes."
	case models.AlertActivityLow:
		c.Title = "Low Activity"
		c.Message = fmt.Sprintf("Your activity level is %.0f, below your target of %.0f.", value, threshold)
		c.Recommendation = "Try a short walk to get moving."
	default:
		c.Title = "Health Alert"
		c.Message = fmt.Sprintf("A monitored value of %.1f crossed your configured threshold of %.1f.", value, threshold)
		c.Recommendation = "Review the reading in the app."
	}

	// 紧急级别统一加前缀并升级建议文案
	if severity == models.SeverityEmergency {
		c.Title = "EMERGENCY: " + c.Title
		c.Recommendation = "Seek medical attention immediately. " + c.Recommendation
	}

	return c
}
