package validation

import (
	"fmt"
	"strings"
)

const (
	RuleRewardOrRelated   = "reward_or_related"
	RuleDuration          = "duration"
	RuleRelatedIsPleasant = "related_is_pleasant"
	RulePeriodicityRange  = "periodicity_range"

	MaxHabitDuration = 120 // seconds
	MinPeriodicity   = 1   // days
	MaxPeriodicity   = 7
	MaxHabitText     = 100
)

// HabitFields is the fully resolved field set of a habit about to be written.
// For partial updates the caller merges stored and incoming values first.
type HabitFields struct {
	IsPleasant     bool
	Reward         *string
	RelatedHabitID *int64
	// RelatedIsPleasant is the is_pleasant flag of the referenced habit.
	// Only read when RelatedHabitID is set.
	RelatedIsPleasant bool
	Duration          int
	Periodicity       int
}

func (f HabitFields) hasReward() bool {
	return f.Reward != nil && strings.TrimSpace(*f.Reward) != ""
}

func (f HabitFields) hasRelated() bool {
	return f.RelatedHabitID != nil
}

// HabitRuleError reports the first habit rule a write violates.
type HabitRuleError struct {
	Rule    string
	Message string
}

func (e *HabitRuleError) Error() string {
	return e.Message
}

type habitRule struct {
	name  string
	check func(HabitFields) string // violation message, empty when satisfied
}

// habitRules run in order and the first violation wins.
var habitRules = []habitRule{
	{name: RuleRewardOrRelated, check: checkRewardOrRelated},
	{name: RuleDuration, check: checkDuration},
	{name: RuleRelatedIsPleasant, check: checkRelatedIsPleasant},
	{name: RulePeriodicityRange, check: checkPeriodicity},
}

// ValidateHabit checks the habit rules against f and returns a *HabitRuleError
// for the first violated rule.
func ValidateHabit(f HabitFields) error {
	for _, rule := range habitRules {
		if msg := rule.check(f); msg != "" {
			return &HabitRuleError{Rule: rule.name, Message: msg}
		}
	}
	return nil
}

func checkRewardOrRelated(f HabitFields) string {
	reward, related := f.hasReward(), f.hasRelated()

	if f.IsPleasant {
		if reward || related {
			return "a pleasant habit cannot have a reward or a related habit"
		}
		return ""
	}

	switch {
	case reward && related:
		return "specify either a reward or a related habit, not both"
	case !reward && !related:
		return "a useful habit needs either a reward or a related habit"
	}
	return ""
}

func checkDuration(f HabitFields) string {
	if f.Duration > MaxHabitDuration {
		return fmt.Sprintf("duration must not exceed %d seconds", MaxHabitDuration)
	}
	return ""
}

func checkRelatedIsPleasant(f HabitFields) string {
	if f.hasRelated() && !f.RelatedIsPleasant {
		return "the related habit must be a pleasant habit"
	}
	return ""
}

func checkPeriodicity(f HabitFields) string {
	if f.Periodicity < MinPeriodicity || f.Periodicity > MaxPeriodicity {
		return fmt.Sprintf("periodicity must be between %d and %d days", MinPeriodicity, MaxPeriodicity)
	}
	return ""
}

// ValidateHabitText checks a free-text habit field such as place or action.
func ValidateHabitText(field, value string, required bool) error {
	trimmed := strings.TrimSpace(value)

	if required && trimmed == "" {
		return fmt.Errorf("%s is required", field)
	}

	if len([]rune(value)) > MaxHabitText {
		return fmt.Errorf("%s is too long (max %d characters)", field, MaxHabitText)
	}

	return nil
}
