package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/catalog"
	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/forecast"
	"github.com/e-mutai/pesa-smart-guide/recommend"
	"github.com/e-mutai/pesa-smart-guide/risk"
)

const cautiousBody = `{"age":"60","monthlyIncome":"40000","investmentGoal":"emergency","timeHorizon":"short",
	"riskTolerance":2,"existingInvestments":"none","monthlyContribution":"5000"}`

type fakeAsync struct {
	res entities.RecommendationResult
	err error
}

func (f fakeAsync) Recommend(_ context.Context, _ entities.UserProfile) (entities.RecommendationResult, error) {
	return f.res, f.err
}

func newRouter(t *testing.T, async AsyncRecommender) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	synthetic := catalog.NewSyntheticHistory(12, 42)
	provider := catalog.NewProvider(logger, nil, []catalog.HistorySource{synthetic})
	svc, err := recommend.New(context.Background(), logger, provider,
		risk.NewClassifier(nil, logger), forecast.NewForecaster(logger), nil, recommend.Options{})
	require.NoError(t, err)

	return NewRouter(FundHandler{Logger: logger, Service: svc, Async: async}, time.Minute)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	rec := do(t, newRouter(t, nil), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestRecommend(t *testing.T) {
	rec := do(t, newRouter(t, nil), http.MethodPost, "/api/recommendations", cautiousBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var funds []entities.EnrichedFund
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &funds))
	require.NotEmpty(t, funds)
	assert.Equal(t, "fund1", funds[0].ID)
	assert.Len(t, funds[0].Forecast, 6)
}

func TestRecommend_BadBody(t *testing.T) {
	rec := do(t, newRouter(t, nil), http.MethodPost, "/api/recommendations", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp entities.ErrorResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestRiskProfile(t *testing.T) {
	rec := do(t, newRouter(t, nil), http.MethodPost, "/api/risk-profile", cautiousBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RiskCategory string `json:"riskCategory"`
		RiskScore    int    `json:"riskScore"`
		Explanation  string `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Conservative", resp.RiskCategory)
	assert.Equal(t, 2, resp.RiskScore)
	assert.NotEmpty(t, resp.Explanation)
}

func TestFunds(t *testing.T) {
	h := newRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/api/funds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var funds []entities.Fund
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &funds))
	assert.Len(t, funds, 9)

	rec = do(t, h, http.MethodGet, "/api/funds/fund3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fund entities.EnrichedFund
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fund))
	assert.Equal(t, "Balanced Fund", fund.Name)
	assert.Len(t, fund.HistoricalData, 12)

	rec = do(t, h, http.MethodGet, "/api/funds/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForecast(t *testing.T) {
	h := newRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/forecast", `{"fundId":"fund2","periods":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.ForecastResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Forecast, 3)

	rec = do(t, h, http.MethodPost, "/api/forecast", `{"fundId":"fund404"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/forecast", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics(t *testing.T) {
	h := newRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/api/funds/fund1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sharpe_ratio")

	rec = do(t, h, http.MethodGet, "/api/funds/nope/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendAsync(t *testing.T) {
	ok := fakeAsync{res: entities.RecommendationResult{ID: "cid", Funds: []entities.EnrichedFund{
		{Fund: entities.Fund{ID: "fund8"}},
	}}}
	rec := do(t, newRouter(t, ok), http.MethodPost, "/api/recommendations/async", cautiousBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fund8")

	failed := fakeAsync{res: entities.RecommendationResult{ID: "cid", Error: "no matching funds"}}
	rec = do(t, newRouter(t, failed), http.MethodPost, "/api/recommendations/async", cautiousBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	down := fakeAsync{err: errors.New("channel closed")}
	rec = do(t, newRouter(t, down), http.MethodPost, "/api/recommendations/async", cautiousBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, newRouter(t, nil), http.MethodPost, "/api/recommendations/async", cautiousBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
