package entities

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/e-mutai/pesa-smart-guide/errs"
)

// Full dates are read as their month.
var periodLayouts = []string{"2006-01", "2006-01-02"}

// PeriodIndex converts a YYYY-MM or YYYY-MM-DD label into an absolute month
// number.
func PeriodIndex(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for _, layout := range periodLayouts {
		if ts, err := time.Parse(layout, label); err == nil {
			return ts.Year()*12 + int(ts.Month()) - 1, true
		}
	}
	return 0, false
}

// Finite reports whether none of vs is NaN or infinite.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NormalizeSeries returns a copy of series ordered by period, keeping the
// last point given for a repeated period. When some label is not a period the
// given order is kept. Any non-finite value or benchmark fails with
// errs.ErrInvalidSeries.
func NormalizeSeries(series []HistoricalPoint) ([]HistoricalPoint, error) {
	idx := make([]int, len(series))
	labelled := true
	for i, p := range series {
		if !Finite(p.Value) || (p.Benchmark != nil && !Finite(*p.Benchmark)) {
			return nil, fmt.Errorf("point %d (%s): %w", i, p.Date, errs.ErrInvalidSeries)
		}
		if labelled {
			idx[i], labelled = PeriodIndex(p.Date)
		}
	}

	if !labelled || len(series) < 2 {
		return append([]HistoricalPoint(nil), series...), nil
	}

	order := make([]int, len(series))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return idx[order[a]] < idx[order[b]] })

	out := make([]HistoricalPoint, 0, len(series))
	for k, i := range order {
		if k > 0 && idx[i] == idx[order[k-1]] {
			out[len(out)-1] = series[i]
			continue
		}
		out = append(out, series[i])
	}
	return out, nil
}
