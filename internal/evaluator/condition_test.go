package evaluator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"sensacare-alert/internal/models"
)

func makeRule(op models.ConditionOperator, threshold float64, secondary *float64) *models.ThresholdRule {
	return &models.ThresholdRule{
		RuleID:                  "rule-1",
		UserID:                  "user-1",
		MetricType:              models.MetricHeartRate,
		ConditionOperator:       op,
		ThresholdValue:          threshold,
		SecondaryThresholdValue: secondary,
	}
}

func f64(v float64) *float64 {
	return &v
}

func TestCheckCondition_Above(t *testing.T) {
	rule := makeRule(models.OperatorAbove, 100, nil)

	assert.True(t, CheckCondition(100.1, rule))
	assert.False(t, CheckCondition(100, rule))
	assert.False(t, CheckCondition(99.9, rule))
}

func TestCheckCondition_Below(t *testing.T) {
	rule := makeRule(models.OperatorBelow, 50, nil)

	assert.True(t, CheckCondition(49.9, rule))
	assert.False(t, CheckCondition(50, rule))
	assert.False(t, CheckCondition(50.1, rule))
}

func TestCheckCondition_EqualAndNotEqual(t *testing.T) {
	eq := makeRule(models.OperatorEqual, 98.6, nil)
	assert.True(t, CheckCondition(98.6, eq))
	assert.False(t, CheckCondition(98.7, eq))

	ne := makeRule(models.OperatorNotEqual, 98.6, nil)
	assert.False(t, CheckCondition(98.6, ne))
	assert.True(t, CheckCondition(98.7, ne))
}

func TestCheckCondition_BetweenInclusive(t *testing.T) {
	rule := makeRule(models.OperatorBetween, 60, f64(100))

	assert.True(t, CheckCondition(60, rule), "lower bound is inclusive")
	assert.True(t, CheckCondition(100, rule), "upper bound is inclusive")
	assert.True(t, CheckCondition(80, rule))
	assert.False(t, CheckCondition(59.9, rule))
	assert.False(t, CheckCondition(100.1, rule))
}

func TestCheckCondition_Outside(t *testing.T) {
	rule := makeRule(models.OperatorOutside, 70, f64(180))

	assert.True(t, CheckCondition(69.9, rule))
	assert.True(t, CheckCondition(180.1, rule))
	assert.False(t, CheckCondition(70, rule), "bounds belong to the inside")
	assert.False(t, CheckCondition(180, rule))
	assert.False(t, CheckCondition(120, rule))
}

func TestCheckCondition_MissingSecondaryThreshold(t *testing.T) {
	// BETWEEN/OUTSIDE 缺少次阈值时绝不误触发
	between := makeRule(models.OperatorBetween, 90, nil)
	assert.False(t, CheckCondition(100, between))

	outside := makeRule(models.OperatorOutside, 90, nil)
	assert.False(t, CheckCondition(100, outside))
}

func TestCheckCondition_NaNNeverPanicsNeverMatches(t *testing.T) {
	nan := math.NaN()

	for _, op := range []models.ConditionOperator{
		models.OperatorAbove, models.OperatorBelow,
		models.OperatorEqual, models.OperatorNotEqual,
		models.OperatorBetween, models.OperatorOutside,
	} {
		rule := makeRule(op, 100, f64(200))
		assert.False(t, CheckCondition(nan, rule), "NaN value must not match %s", op)

		rule.ThresholdValue = nan
		assert.False(t, CheckCondition(100, rule), "NaN threshold must not match %s", op)
	}

	// NaN 次阈值
	rule := makeRule(models.OperatorBetween, 100, f64(nan))
	assert.False(t, CheckCondition(150, rule))
}

func TestCheckCondition_Infinity(t *testing.T) {
	rule := makeRule(models.OperatorAbove, 100, nil)
	assert.True(t, CheckCondition(math.Inf(1), rule))
	assert.False(t, CheckCondition(math.Inf(-1), rule))
}

func TestCheckCondition_UnknownOperator(t *testing.T) {
	rule := makeRule(models.ConditionOperator("BOGUS"), 100, nil)
	assert.False(t, CheckCondition(200, rule))
}
