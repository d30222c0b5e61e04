package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// RiskFreeRate is subtracted from the average return in the Sharpe ratio.
const RiskFreeRate = 0.05

// flatVolatility treats float noise around a constant series as zero volatility.
const flatVolatility = 1e-9

// Metrics summarizes a series: mean, population standard deviation and the
// Sharpe ratio. An empty series gives all zeros. Non-finite input, or values
// so large the summary overflows, fail with errs.ErrInvalidSeries.
func Metrics(series []entities.HistoricalPoint) (entities.PerformanceMetrics, error) {
	if len(series) == 0 {
		return entities.PerformanceMetrics{}, nil
	}

	series, err := entities.NormalizeSeries(series)
	if err != nil {
		return entities.PerformanceMetrics{}, err
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	if len(values) == 1 {
		return entities.PerformanceMetrics{AverageReturn: round2(values[0])}, nil
	}

	avg, vol := stat.PopMeanStdDev(values, nil)
	var sharpe float64
	if vol < flatVolatility {
		vol = 0
	} else {
		sharpe = (avg - RiskFreeRate) / vol
	}
	if !entities.Finite(avg, vol, sharpe) {
		return entities.PerformanceMetrics{}, fmt.Errorf("summarize %d points: %w", len(values), errs.ErrInvalidSeries)
	}

	return entities.PerformanceMetrics{
		AverageReturn: round2(avg),
		Volatility:    round2(vol),
		SharpeRatio:   round2(sharpe),
	}, nil
}

// round2 expects a finite value.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
