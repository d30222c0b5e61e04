package entities

import (
	"encoding/json"
	"fmt"
)

// RiskCategory is ordered by implied risk appetite, Conservative first.
type RiskCategory int

const (
	Conservative RiskCategory = iota + 1
	Moderate
	Balanced
	Growth
	Aggressive
)

var RiskCategories = []RiskCategory{Conservative, Moderate, Balanced, Growth, Aggressive}

var riskCategoryNames = map[RiskCategory]string{
	Conservative: "Conservative",
	Moderate:     "Moderate",
	Balanced:     "Balanced",
	Growth:       "Growth",
	Aggressive:   "Aggressive",
}

var riskStrategies = map[RiskCategory]string{
	Conservative: "Primarily money market and fixed income funds",
	Moderate:     "Balanced between fixed income and moderate risk funds",
	Balanced:     "Mix of fixed income and equity funds",
	Growth:       "Higher allocation to equity funds with some fixed income",
	Aggressive:   "Primarily equity and aggressive growth funds",
}

func (c RiskCategory) String() string {
	if n, ok := riskCategoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("RiskCategory(%d)", int(c))
}

func (c RiskCategory) Valid() bool {
	_, ok := riskCategoryNames[c]
	return ok
}

// Score places the category on the 1-5 scale shared with fund risk labels.
// Invalid categories sit in the middle of the scale.
func (c RiskCategory) Score() int {
	if !c.Valid() {
		return int(Balanced)
	}
	return int(c)
}

// DisplayScore is the 1-10 score shown to users: 2, 4, 6, 8 or 10.
func (c RiskCategory) DisplayScore() int {
	return c.Score() * 2
}

func (c RiskCategory) Explanation() string {
	cat := RiskCategory(c.Score())
	review := "Monthly"
	if cat == Conservative || cat == Moderate {
		review = "Quarterly"
	}
	return fmt.Sprintf("%s risk profile: %s. Recommended portfolio review: %s.",
		cat.String(), riskStrategies[cat], review)
}

func ParseRiskCategory(s string) (RiskCategory, error) {
	for c, n := range riskCategoryNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown risk category %q", s)
}

func (c RiskCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *RiskCategory) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRiskCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// fund risk labels on the same 1-5 scale
var fundRiskScores = map[string]int{
	"Low":        1,
	"Low-Medium": 2,
	"Medium":     3,
	"High":       4,
	"Very High":  5,
}

// FundRiskScore maps a fund risk label to 1-5. ok is false for labels outside
// the vocabulary, in which case the middle of the scale is returned.
func FundRiskScore(label string) (score int, ok bool) {
	s, ok := fundRiskScores[label]
	if !ok {
		return 3, false
	}
	return s, true
}
