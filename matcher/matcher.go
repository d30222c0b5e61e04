package matcher

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

const (
	DefaultTopN  = 3
	MaxNeighbors = 5
	dims         = 4
)

// Match is a catalog fund with its distance to the query in standardized space.
type Match struct {
	Fund     entities.Fund
	Distance float64
}

// Matcher ranks catalog funds against a synthetic query point built from the
// user profile. Scaling statistics are computed once, at Build.
type Matcher struct {
	logger *zap.Logger
	funds  []entities.Fund
	mean   [dims]float64
	scale  [dims]float64
	scaled [][dims]float64
	k      int
}

// Build indexes the catalog. An empty catalog cannot be matched against.
func Build(catalog []entities.Fund, logger *zap.Logger) (*Matcher, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("build matcher: %w", errs.ErrEmptyCatalog)
	}

	m := &Matcher{
		logger: logger.With(zap.String("caller", "FundMatcher")),
		funds:  append([]entities.Fund(nil), catalog...),
		scaled: make([][dims]float64, len(catalog)),
		k:      min(MaxNeighbors, len(catalog)),
	}

	raw := make([][dims]float64, len(catalog))
	for i, f := range catalog {
		score, ok := entities.FundRiskScore(f.Risk)
		if !ok {
			m.logger.Warn("unknown fund risk label, using middle of scale",
				zap.String("fund", f.ID), zap.String("risk", f.Risk))
		}
		raw[i] = [dims]float64{f.PerformancePercent, float64(score), f.Fee, f.MinimumInvestment}
	}

	column := make([]float64, len(raw))
	for d := 0; d < dims; d++ {
		for i := range raw {
			column[i] = raw[i][d]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		m.mean[d], m.scale[d] = mean, std
	}

	for i := range raw {
		m.scaled[i] = m.standardize(raw[i])
	}

	return m, nil
}

// Query is the point a profile is compared against, with the limits used to
// filter neighbors.
type Query struct {
	Point            [dims]float64
	FeeCeiling       float64
	InvestmentTarget float64
}

// NewQuery turns a profile and category into a query point. Unreadable income
// or contribution fall back to their defaults.
func NewQuery(profile entities.UserProfile, category entities.RiskCategory) (Query, []error) {
	var fallbacks []error

	riskScore := float64(category.Score())
	expectedPerformance := 5 + 2*riskScore

	ceiling, fallback := profile.FeeCeiling()
	if fallback {
		fallbacks = append(fallbacks, &errs.CoercionFallback{Field: "monthlyIncome", Raw: profile.MonthlyIncome, Used: ceiling})
	}
	base, fallback := profile.InvestmentBase()
	if fallback {
		fallbacks = append(fallbacks, &errs.CoercionFallback{Field: "monthlyContribution", Raw: profile.MonthlyContribution, Used: base})
	}

	return Query{
		Point:            [dims]float64{expectedPerformance, riskScore, ceiling / 2, base / 2},
		FeeCeiling:       ceiling,
		InvestmentTarget: base / 2,
	}, fallbacks
}

// Match returns at most topN funds ordered by distance.
func (m *Matcher) Match(profile entities.UserProfile, category entities.RiskCategory, topN int) []Match {
	logger := m.logger.With(zap.String("method", "Match"))
	if topN <= 0 {
		topN = DefaultTopN
	}

	q, fallbacks := NewQuery(profile, category)
	for _, fb := range fallbacks {
		logger.Debug(fb.Error())
	}

	neighbors := m.Neighbors(q.Point)

	maxMinimum := 2 * q.InvestmentTarget
	filtered := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Fund.Fee <= q.FeeCeiling && n.Fund.MinimumInvestment <= maxMinimum {
			filtered = append(filtered, n)
		}
	}

	if len(filtered) < topN && len(neighbors) >= topN {
		logger.Debug("filter too strict, keeping raw neighbors",
			zap.Int("filtered", len(filtered)), zap.Int("neighbors", len(neighbors)))
		filtered = neighbors
	}

	if len(filtered) > topN {
		filtered = filtered[:topN]
	}
	return filtered
}

// Neighbors returns the k nearest catalog funds to a raw query point, closest
// first, ties in catalog order.
func (m *Matcher) Neighbors(point [dims]float64) []Match {
	q := m.standardize(point)

	all := make([]Match, len(m.funds))
	for i := range m.funds {
		var sum float64
		for d := 0; d < dims; d++ {
			diff := m.scaled[i][d] - q[d]
			sum += diff * diff
		}
		all[i] = Match{Fund: m.funds[i], Distance: math.Sqrt(sum)}
	}

	sort.SliceStable(all, func(a, b int) bool { return all[a].Distance < all[b].Distance })
	return all[:m.k]
}

func (m *Matcher) Catalog() []entities.Fund {
	return m.funds
}

func (m *Matcher) standardize(v [dims]float64) [dims]float64 {
	var out [dims]float64
	for d := 0; d < dims; d++ {
		out[d] = (v[d] - m.mean[d]) / m.scale[d]
	}
	return out
}
