package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

const (
	// ChangepointPriorScale keeps the trend stiff on short monthly histories.
	ChangepointPriorScale = 0.05
	MaxChangepoints       = 25
	ChangepointRange      = 0.8
	IntervalWidthZ        = 1.2816 // 80% two-sided band

	baseSigma      = 0.5
	basePriorScale = 5.0
	minResidualStd = 1e-6
	periodLayout   = "2006-01"
	monthsPerYear  = 12
)

// Model is an additive piecewise-linear trend fitted on monthly points.
// Seasonal terms are left out: a year of monthly history cannot support them.
type Model struct {
	origin       int // month index of the first observation
	span         float64
	lastIndex    int
	labelled     bool
	n            int
	yScale       float64
	k, m         float64
	changepoints []float64
	deltas       []float64
	residualStd  float64
}

// Fit estimates the trend by penalized least squares. Changepoint deltas carry a
// Gaussian approximation of a Laplace(0, ChangepointPriorScale) prior.
func Fit(series []entities.HistoricalPoint) (*Model, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("fit trend: %w", errs.ErrInvalidSeries)
	}
	series, err := entities.NormalizeSeries(series)
	if err != nil {
		return nil, fmt.Errorf("fit trend: %w", err)
	}
	n := len(series)

	idx, labelled := monthIndices(series)
	mdl := &Model{
		origin:    idx[0],
		lastIndex: idx[n-1],
		labelled:  labelled,
		n:         n,
		span:      float64(idx[n-1] - idx[0]),
	}
	if mdl.span <= 0 {
		mdl.span = 1
	}

	for _, p := range series {
		mdl.yScale = math.Max(mdl.yScale, math.Abs(p.Value))
	}
	if mdl.yScale == 0 {
		mdl.yScale = 1
	}

	t := make([]float64, n)
	y := make([]float64, n)
	for i, p := range series {
		t[i] = mdl.scaledTime(idx[i])
		y[i] = p.Value / mdl.yScale
	}
	mdl.changepoints = placeChangepoints(t)

	cols := 2 + len(mdl.changepoints)
	a := mat.NewDense(n, cols, nil)
	for i := range t {
		for j, v := range mdl.features(t[i]) {
			a.Set(i, j, v)
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	deltaPenalty := baseSigma * baseSigma / (2 * ChangepointPriorScale * ChangepointPriorScale)
	basePenalty := baseSigma * baseSigma / (basePriorScale * basePriorScale)
	for j := 0; j < cols; j++ {
		pen := deltaPenalty
		if j < 2 {
			pen = basePenalty
		}
		ata.Set(j, j, ata.At(j, j)+pen)
	}

	var atb mat.VecDense
	atb.MulVec(a.T(), mat.NewVecDense(n, y))

	var beta mat.VecDense
	if err := beta.SolveVec(&ata, &atb); err != nil {
		return nil, fmt.Errorf("solve trend: %w", err)
	}

	mdl.m = beta.AtVec(0)
	mdl.k = beta.AtVec(1)
	mdl.deltas = make([]float64, len(mdl.changepoints))
	for j := range mdl.deltas {
		mdl.deltas[j] = beta.AtVec(2 + j)
	}

	var sse float64
	for i := range t {
		r := (y[i] - mdl.trend(t[i])) * mdl.yScale
		sse += r * r
	}
	mdl.residualStd = math.Max(math.Sqrt(sse/float64(n)), minResidualStd)

	if !entities.Finite(mdl.m, mdl.k, mdl.residualStd) || !entities.Finite(mdl.deltas...) {
		return nil, fmt.Errorf("fit trend: values out of range: %w", errs.ErrInvalidSeries)
	}
	return mdl, nil
}

// Predict projects periods monthly points past the last observation. A
// projection that leaves the float range fails with errs.ErrInvalidSeries.
func (mdl *Model) Predict(periods int, now time.Time) ([]entities.ForecastPoint, error) {
	out := make([]entities.ForecastPoint, 0, periods)

	var meanAbsDelta float64
	for _, d := range mdl.deltas {
		meanAbsDelta += math.Abs(d)
	}
	if len(mdl.deltas) > 0 {
		meanAbsDelta /= float64(len(mdl.deltas))
	}

	for h := 1; h <= periods; h++ {
		t := mdl.scaledTime(mdl.lastIndex + h)
		yhat := mdl.trend(t) * mdl.yScale

		ahead := t - 1
		noise := IntervalWidthZ * mdl.residualStd * math.Sqrt(1+float64(h)/float64(mdl.n))
		drift := IntervalWidthZ * meanAbsDelta * mdl.yScale * ahead
		half := noise + drift
		if !entities.Finite(yhat, yhat-half, yhat+half) {
			return nil, fmt.Errorf("predict %d months ahead: %w", h, errs.ErrInvalidSeries)
		}

		out = append(out, entities.ForecastPoint{
			Date:           mdl.label(h, now),
			PredictedValue: round2(yhat),
			LowerBound:     round2(yhat - half),
			UpperBound:     round2(yhat + half),
		})
	}

	return out, nil
}

func (mdl *Model) scaledTime(monthIndex int) float64 {
	return float64(monthIndex-mdl.origin) / mdl.span
}

func (mdl *Model) features(t float64) []float64 {
	f := make([]float64, 2+len(mdl.changepoints))
	f[0] = 1
	f[1] = t
	for j, s := range mdl.changepoints {
		if t > s {
			f[2+j] = t - s
		}
	}
	return f
}

func (mdl *Model) trend(t float64) float64 {
	v := mdl.m + mdl.k*t
	for j, s := range mdl.changepoints {
		if t > s {
			v += mdl.deltas[j] * (t - s)
		}
	}
	return v
}

func (mdl *Model) label(h int, now time.Time) string {
	if !mdl.labelled {
		return now.AddDate(0, h, 0).Format(periodLayout)
	}
	idx := mdl.lastIndex + h
	return time.Date(idx/monthsPerYear, time.Month(idx%monthsPerYear+1), 1, 0, 0, 0, 0, time.UTC).Format(periodLayout)
}

// placeChangepoints spreads candidate changepoints over the first part of the
// history, skipping the first observation.
func placeChangepoints(t []float64) []float64 {
	histSize := int(math.Floor(float64(len(t)) * ChangepointRange))
	nCp := MaxChangepoints
	if nCp+1 > histSize {
		nCp = histSize - 1
	}
	if nCp <= 0 {
		return nil
	}

	cps := make([]float64, 0, nCp)
	step := float64(histSize-1) / float64(nCp)
	for i := 1; i <= nCp; i++ {
		cps = append(cps, t[int(math.Round(float64(i)*step))])
	}
	return cps
}

// monthIndices converts period labels into absolute month numbers. When any
// label cannot be parsed the positions are used instead.
func monthIndices(series []entities.HistoricalPoint) ([]int, bool) {
	idx := make([]int, len(series))
	for i, p := range series {
		m, ok := entities.PeriodIndex(p.Date)
		if !ok {
			for j := range idx {
				idx[j] = j
			}
			return idx, false
		}
		idx[i] = m
	}
	return idx, true
}
