package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

const (
	DefaultHistoryMonths = 12
	benchmarkAnnual      = 8.5
)

// SyntheticHistory fabricates a compounded monthly return series around the
// fund's headline performance. The same fund always gets the same series.
type SyntheticHistory struct {
	Months int
	Seed   int64
	Now    func() time.Time
}

func NewSyntheticHistory(months int, seed int64) *SyntheticHistory {
	if months <= 0 {
		months = DefaultHistoryMonths
	}
	return &SyntheticHistory{Months: months, Seed: seed, Now: time.Now}
}

func (*SyntheticHistory) Name() string { return "synthetic" }

func (h *SyntheticHistory) History(_ context.Context, fund entities.Fund) ([]entities.HistoricalPoint, error) {
	if !entities.Finite(fund.PerformancePercent) {
		return nil, fmt.Errorf("history %s: performance %v: %w", fund.ID, fund.PerformancePercent, errs.ErrInvalidSeries)
	}

	hash := fnv.New64a()
	hash.Write([]byte(fund.ID))
	rng := rand.New(rand.NewSource(h.Seed ^ int64(hash.Sum64())))

	now := h.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(h.Months - 1), 0)

	value, benchmark := 100.0, 100.0
	series := make([]entities.HistoricalPoint, h.Months)
	for i := range series {
		monthly := fund.PerformancePercent/12 + (rng.Float64()*2 - 1)
		bench := benchmarkAnnual/12 + (rng.Float64()*1.5 - 0.75)

		value *= 1 + monthly/100
		benchmark *= 1 + bench/100
		if !entities.Finite(value) {
			return nil, fmt.Errorf("history %s: compounding overflows: %w", fund.ID, errs.ErrInvalidSeries)
		}

		b := round2(benchmark - 100)
		series[i] = entities.HistoricalPoint{
			Date:      first.AddDate(0, i, 0).Format("2006-01"),
			Value:     round2(value - 100),
			Benchmark: &b,
		}
	}

	return series, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
