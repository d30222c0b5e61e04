package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-mutai/pesa-smart-guide/errs"
)

func TestPeriodIndex(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"2025-01", 2025*12 + 0, true},
		{"2025-12-31", 2025*12 + 11, true},
		{" 2024-06 ", 2024*12 + 5, true},
		{"June 2024", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := PeriodIndex(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestNormalizeSeries_SortsAndMergesDuplicates(t *testing.T) {
	in := []HistoricalPoint{
		{Date: "2025-03", Value: 3},
		{Date: "2025-01", Value: 1},
		{Date: "2025-02-01", Value: 2},
		{Date: "2025-02-28", Value: 2.5},
	}

	out, err := NormalizeSeries(in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{1, 2.5, 3}, []float64{out[0].Value, out[1].Value, out[2].Value})
	assert.Equal(t, "2025-03", in[0].Date, "input left untouched")
}

func TestNormalizeSeries_UnlabelledKeepsOrder(t *testing.T) {
	in := []HistoricalPoint{{Date: "b", Value: 2}, {Date: "a", Value: 1}}

	out, err := NormalizeSeries(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalizeSeries_RejectsNonFinite(t *testing.T) {
	nan := math.NaN()

	_, err := NormalizeSeries([]HistoricalPoint{{Date: "2025-01", Value: math.Inf(1)}})
	assert.ErrorIs(t, err, errs.ErrInvalidSeries)

	_, err = NormalizeSeries([]HistoricalPoint{{Date: "2025-01", Value: 1, Benchmark: &nan}})
	assert.ErrorIs(t, err, errs.ErrInvalidSeries)
}
