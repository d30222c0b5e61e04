package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"
	seriesPath     = `$["Monthly Time Series"]`
	closeKey       = "4. close"
)

// Fetcher returns the last months of a symbol as cumulative percent change
// against the oldest month, oldest first.
type Fetcher interface {
	FetchMonthlySeries(ctx context.Context, symbol string, months int) ([]entities.HistoricalPoint, error)
}

type AlphaVantageClient struct {
	url    string
	apiKey string
	client *http.Client
	logger *zap.Logger
}

func NewAlphaVantageClient(c *http.Client, baseURL, apiKey string, logger *zap.Logger) AlphaVantageClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return AlphaVantageClient{
		url:    baseURL,
		apiKey: apiKey,
		client: c,
		logger: logger.With(zap.String("caller", "AlphaVantageClient")),
	}
}

func (c AlphaVantageClient) FetchMonthlySeries(ctx context.Context, symbol string, months int) ([]entities.HistoricalPoint, error) {
	logger := c.logger.With(zap.String("method", "FetchMonthlySeries"), zap.String("symbol", symbol))

	start := time.Now()
	series, err := c.fetch(ctx, symbol, months)
	logger.Debug("finish fetch", zap.Duration("duration", time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", symbol, errs.ErrUpstreamUnavailable, err)
	}

	return series, nil
}

func (c AlphaVantageClient) fetch(ctx context.Context, symbol string, months int) ([]entities.HistoricalPoint, error) {
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive, got %d", months)
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_MONTHLY")
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)
	query.Set("datatype", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("responded with %v http code", resp.StatusCode)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// rate limit and error notes come back as 200 without the series
	jval, err := jsonpath.Get(seriesPath, jobj)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", seriesPath, err)
	}
	monthly, ok := jval.(map[string]any)
	if !ok || len(monthly) == 0 {
		return nil, fmt.Errorf("parse %q: no monthly series", seriesPath)
	}

	return toSeries(monthly, months)
}

func toSeries(monthly map[string]any, months int) ([]entities.HistoricalPoint, error) {
	dates := make([]string, 0, len(monthly))
	for d := range monthly {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > months {
		dates = dates[len(dates)-months:]
	}

	closes := make([]float64, len(dates))
	for i, d := range dates {
		v, err := closeOf(monthly[d])
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", d, err)
		}
		if !entities.Finite(v) {
			return nil, fmt.Errorf("month %s: close %v", d, v)
		}
		closes[i] = v
	}

	base := closes[0]
	if base == 0 {
		return nil, fmt.Errorf("month %s: zero close", dates[0])
	}

	series := make([]entities.HistoricalPoint, len(dates))
	for i, d := range dates {
		pct := (closes[i] - base) / base * 100
		if !entities.Finite(pct) {
			return nil, fmt.Errorf("month %s: change out of range", d)
		}
		change := decimal.NewFromFloat(pct).Round(2).InexactFloat64()
		label := d
		if len(label) > 7 {
			label = label[:7]
		}
		series[i] = entities.HistoricalPoint{Date: label, Value: change}
	}
	return series, nil
}

func closeOf(entry any) (float64, error) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("unexpected entry %v", entry)
	}
	switch v := fields[closeKey].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("no %q value", closeKey)
	}
}

// MergeBenchmark copies series and sets each point's benchmark from the point
// at the same index of benchmark. Points past its end keep what they had.
func MergeBenchmark(series, benchmark []entities.HistoricalPoint) []entities.HistoricalPoint {
	merged := make([]entities.HistoricalPoint, len(series))
	copy(merged, series)
	for i := range merged {
		if i >= len(benchmark) {
			break
		}
		b := benchmark[i].Value
		merged[i].Benchmark = &b
	}
	return merged
}
