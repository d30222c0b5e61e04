package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/config"
	"github.com/e-mutai/pesa-smart-guide/entities"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0", Timeout: time.Minute},
		Log:    config.LogConfig{Level: "info"},
		Catalog: config.CatalogConfig{
			SQLitePath:    filepath.Join(dir, "funds.db"),
			HistoryMonths: 12,
			HistorySeed:   42,
		},
		Model:     config.ModelConfig{Path: filepath.Join(dir, "risk_model.json"), SQLite: true},
		Market:    config.MarketConfig{Timeout: time.Second, BenchmarkSymbol: "SPY"},
		Recommend: config.RecommendConfig{TopN: 2, Currency: "KES"},
		Forecast:  config.ForecastConfig{Periods: 4},
	}
}

func TestBuildService_EmptyStoreFallsBackToStatic(t *testing.T) {
	cfg := testConfig(t)

	svc, cleanup, err := buildService(context.Background(), cfg, zap.NewNop())
	defer cleanup()
	require.NoError(t, err)

	assert.Len(t, svc.Funds(), 9)

	recs, err := svc.Recommend(context.Background(), entities.UserProfile{
		Age: "35", MonthlyIncome: "80000", InvestmentGoal: "retirement", TimeHorizon: "long",
		RiskTolerance: 3, ExistingInvestments: "some", MonthlyContribution: "10000",
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Forecast, 4)
}

func TestNewClassifier_SQLiteNeedsDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.SQLitePath = ""

	_, err := newClassifier(cfg, nil, zap.NewNop())
	assert.Error(t, err)

	cfg.Model.SQLite = false
	c, err := newClassifier(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewFetcher_Disabled(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, newFetcher(cfg, zap.NewNop()))

	cfg.Market.Enabled = true
	cfg.Market.BaseURL = "http://localhost"
	assert.NotNil(t, newFetcher(cfg, zap.NewNop()))
}

func TestInitLogger(t *testing.T) {
	l, err := InitLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = InitLogger("loud")
	assert.Error(t, err)
}
