package entities

import (
	"math"
	"strconv"
	"strings"
)

// Defaults used when a free-text profile field cannot be read as a number.
const (
	DefaultAge            = 30
	DefaultIncomeLevel    = 2
	DefaultFeeCeiling     = 2.0
	DefaultInvestmentBase = 100000.0
)

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AgeValue returns the profile age. fallback reports that DefaultAge was used.
func (p UserProfile) AgeValue() (age float64, fallback bool) {
	v, ok := parseNumber(p.Age)
	if !ok {
		return DefaultAge, true
	}
	return v, false
}

// IncomeLevel bins monthly income into 1 (low) .. 5 (high).
func (p UserProfile) IncomeLevel() (level int, fallback bool) {
	income, ok := parseNumber(p.MonthlyIncome)
	if !ok {
		return DefaultIncomeLevel, true
	}
	switch {
	case income < 50000:
		return 1, false
	case income < 100000:
		return 2, false
	case income < 200000:
		return 3, false
	case income < 500000:
		return 4, false
	default:
		return 5, false
	}
}

// FeeCeiling is the highest management fee the income bracket tolerates,
// in the same unit as catalog fees.
func (p UserProfile) FeeCeiling() (ceiling float64, fallback bool) {
	income, ok := parseNumber(p.MonthlyIncome)
	if !ok {
		return DefaultFeeCeiling, true
	}
	switch {
	case income < 50000:
		return 1.5, false
	case income < 100000:
		return 2.0, false
	case income < 200000:
		return 2.5, false
	default:
		return 3.0, false
	}
}

// InvestmentBase is roughly one year of contributions.
func (p UserProfile) InvestmentBase() (base float64, fallback bool) {
	c, ok := parseNumber(p.MonthlyContribution)
	if !ok {
		return DefaultInvestmentBase, true
	}
	return c * 12, false
}

func (p UserProfile) Goal() string       { return normalize(p.InvestmentGoal) }
func (p UserProfile) Horizon() string    { return normalize(p.TimeHorizon) }
func (p UserProfile) Experience() string { return normalize(p.ExistingInvestments) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
