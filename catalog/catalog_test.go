package catalog

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

type failingSource struct{ err error }

func (failingSource) Name() string { return "failing" }

func (s failingSource) LoadCatalog(_ context.Context) ([]entities.Fund, error) {
	return nil, s.err
}

type emptySource struct{}

func (emptySource) Name() string { return "empty" }

func (emptySource) LoadCatalog(_ context.Context) ([]entities.Fund, error) {
	return []entities.Fund{}, nil
}

type fixedSource struct{ funds []entities.Fund }

func (fixedSource) Name() string { return "fixed" }

func (s fixedSource) LoadCatalog(_ context.Context) ([]entities.Fund, error) {
	return s.funds, nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
}

func TestStaticFunds(t *testing.T) {
	funds := StaticFunds()
	require.Len(t, funds, 9)
	assert.Equal(t, "fund1", funds[0].ID)
	assert.Equal(t, "BIL", funds[0].Symbol)

	funds[0].Name = "changed"
	assert.Equal(t, "Money Market Fund", StaticFunds()[0].Name)
}

func TestProvider_FallsBackToStatic(t *testing.T) {
	p := NewProvider(zap.NewNop(), []Source{
		failingSource{err: errors.New("connection refused")},
		emptySource{},
	}, nil)

	funds, err := p.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, funds, 9)
}

func TestProvider_FirstSourceWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
funds:
  - id: a1
    name: Alpha
    risk: Low
    fee: 1.2
    minimum_investment: 500
    performance_percent: 7.5
`), 0644))

	p := NewProvider(zap.NewNop(), []Source{FileSource{Path: path}}, nil)
	funds, err := p.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, "Alpha", funds[0].Name)
	assert.Equal(t, 500.0, funds[0].MinimumInvestment)
	assert.Equal(t, 7.5, funds[0].PerformancePercent)
}

func TestFileSource_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := FileSource{Path: filepath.Join(dir, "absent.yaml")}.LoadCatalog(ctx)
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("funds:\n  - id: x\n  - id: x\n"), 0644))
	_, err = FileSource{Path: dup}.LoadCatalog(ctx)
	assert.ErrorContains(t, err, "duplicate")
}

func TestSQLiteSource_SeedAndLoad(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	src, err := NewSQLiteSource(db)
	require.NoError(t, err)
	ctx := context.Background()

	funds, err := src.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, funds)

	b := 1.5
	seed := StaticFunds()
	seed[2].HistoricalData = []entities.HistoricalPoint{
		{Date: "2025-01", Value: 1.1, Benchmark: &b},
		{Date: "2025-02", Value: 2.2},
	}
	require.NoError(t, src.Seed(ctx, seed))
	require.NoError(t, src.Seed(ctx, seed))

	funds, err = src.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 9)
	for i := range funds {
		assert.Equal(t, seed[i].ID, funds[i].ID)
	}
	assert.Equal(t, "VGSIX", funds[8].Symbol)
	require.Len(t, funds[2].HistoricalData, 2)
	assert.Equal(t, 1.5, *funds[2].HistoricalData[0].Benchmark)
	assert.Nil(t, funds[2].HistoricalData[1].Benchmark)
	assert.Empty(t, funds[0].HistoricalData)
}

func TestProvider_EmptyDatabaseFallsThrough(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()
	src, err := NewSQLiteSource(db)
	require.NoError(t, err)

	p := NewProvider(zap.NewNop(), []Source{src}, nil)
	funds, err := p.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, funds, 9)
}

func TestCSVHistory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fund1.csv"),
		[]byte("date,value,benchmark\n2025-01,0.8,0.7\n2025-02,1.6,\n"), 0644))
	h := CSVHistory{Dir: dir}
	ctx := context.Background()

	series, err := h.History(ctx, entities.Fund{ID: "fund1"})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2025-02", series[1].Date)
	assert.Equal(t, 1.6, series[1].Value)
	assert.Equal(t, 0.7, *series[0].Benchmark)
	assert.Nil(t, series[1].Benchmark)

	_, err = h.History(ctx, entities.Fund{ID: "fund2"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSyntheticHistory(t *testing.T) {
	h := NewSyntheticHistory(12, 7)
	h.Now = fixedNow
	fund := StaticFunds()[0]
	ctx := context.Background()

	a, err := h.History(ctx, fund)
	require.NoError(t, err)
	b, err := h.History(ctx, fund)
	require.NoError(t, err)

	require.Len(t, a, 12)
	assert.Equal(t, a, b)
	assert.Equal(t, "2025-04", a[0].Date)
	assert.Equal(t, "2026-03", a[11].Date)
	assert.NotNil(t, a[0].Benchmark)
	// 9.8% a year compounds well above zero over twelve months
	assert.Greater(t, a[11].Value, 0.0)
}

func TestProvider_FillsMissingHistory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fund2.csv"),
		[]byte("date,value\n2025-01,3\n"), 0644))

	synthetic := NewSyntheticHistory(6, 1)
	synthetic.Now = fixedNow
	p := NewProvider(zap.NewNop(), nil, []HistorySource{CSVHistory{Dir: dir}, synthetic})

	funds, err := p.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, funds[1].HistoricalData, 1)
	assert.Len(t, funds[0].HistoricalData, 6)
	for _, f := range funds {
		assert.NotEmpty(t, f.HistoricalData, f.ID)
	}
}

func TestCSVHistory_OrdersAndMergesPeriods(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fund1.csv"),
		[]byte("date,value\n2025-03-31,3\n2025-01-31,1\n2025-02-01,2\n2025-02-28,2.5\n"), 0644))

	series, err := CSVHistory{Dir: dir}.History(context.Background(), entities.Fund{ID: "fund1"})
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2025-01-31", series[0].Date)
	assert.Equal(t, 2.5, series[1].Value)
	assert.Equal(t, "2025-03-31", series[2].Date)
}

func TestCSVHistory_NonFiniteValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fund1.csv"),
		[]byte("date,value\n2025-01,1\n2025-02,NaN\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fund2.csv"),
		[]byte("date,value,benchmark\n2025-01,1,+Inf\n"), 0644))
	h := CSVHistory{Dir: dir}
	ctx := context.Background()

	_, err := h.History(ctx, entities.Fund{ID: "fund1"})
	assert.ErrorIs(t, err, errs.ErrInvalidSeries)
	_, err = h.History(ctx, entities.Fund{ID: "fund2"})
	assert.ErrorIs(t, err, errs.ErrInvalidSeries)

	synthetic := NewSyntheticHistory(12, 1)
	synthetic.Now = fixedNow
	p := NewProvider(zap.NewNop(), nil, []HistorySource{h, synthetic})

	funds, err := p.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, funds[0].HistoricalData, 12)
	assert.Len(t, funds[1].HistoricalData, 12)
}

func TestFileSource_RejectsNonFiniteFigures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
funds:
  - id: a1
    name: Alpha
    risk: Low
    fee: 1.2
    minimum_investment: 500
    performance_percent: .nan
`), 0644))

	_, err := FileSource{Path: path}.LoadCatalog(context.Background())
	assert.ErrorContains(t, err, "non-finite")

	funds, err := NewProvider(zap.NewNop(), []Source{FileSource{Path: path}}, nil).LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, funds, 9)
}

func TestProvider_RefillsUnusableStoredHistory(t *testing.T) {
	fund := StaticFunds()[0]
	fund.HistoricalData = []entities.HistoricalPoint{
		{Date: "2025-01", Value: 1},
		{Date: "2025-02", Value: math.NaN()},
	}
	ordered := StaticFunds()[1]
	ordered.HistoricalData = []entities.HistoricalPoint{
		{Date: "2025-02", Value: 2},
		{Date: "2025-01", Value: 1},
	}

	synthetic := NewSyntheticHistory(6, 1)
	synthetic.Now = fixedNow
	p := NewProvider(zap.NewNop(), []Source{fixedSource{funds: []entities.Fund{fund, ordered}}},
		[]HistorySource{synthetic})

	funds, err := p.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, funds, 2)
	require.Len(t, funds[0].HistoricalData, 6)
	for _, pt := range funds[0].HistoricalData {
		assert.False(t, math.IsNaN(pt.Value))
	}
	require.Len(t, funds[1].HistoricalData, 2)
	assert.Equal(t, "2025-01", funds[1].HistoricalData[0].Date)
}
