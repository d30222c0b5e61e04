package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
	"github.com/e-mutai/pesa-smart-guide/forecast"
	"github.com/e-mutai/pesa-smart-guide/marketdata"
	"github.com/e-mutai/pesa-smart-guide/matcher"
	"github.com/e-mutai/pesa-smart-guide/risk"
)

const (
	DefaultRefreshTimeout  = 10 * time.Second
	DefaultHistoryMonths   = 12
	DefaultBenchmarkSymbol = "SPY"
	DefaultCurrency        = "KES"
)

// CatalogLoader is satisfied by catalog.Provider.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]entities.Fund, error)
}

type Options struct {
	TopN            int
	ForecastPeriods int
	HistoryMonths   int
	BenchmarkSymbol string
	RefreshTimeout  time.Duration
	Currency        string
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = matcher.DefaultTopN
	}
	if o.ForecastPeriods <= 0 {
		o.ForecastPeriods = forecast.DefaultPeriods
	}
	if o.HistoryMonths <= 0 {
		o.HistoryMonths = DefaultHistoryMonths
	}
	if o.BenchmarkSymbol == "" {
		o.BenchmarkSymbol = DefaultBenchmarkSymbol
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = DefaultRefreshTimeout
	}
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	return o
}

// Service runs the recommendation pipeline over a catalog loaded once at
// construction.
type Service struct {
	logger     *zap.Logger
	classifier *risk.Classifier
	forecaster *forecast.Forecaster
	fetcher    marketdata.Fetcher
	matcher    *matcher.Matcher
	funds      []entities.Fund
	index      map[string]int
	opts       Options
}

// New loads the catalog and indexes it. An empty catalog is a configuration
// error. fetcher may be nil, which disables live refresh.
func New(
	ctx context.Context,
	logger *zap.Logger,
	loader CatalogLoader,
	classifier *risk.Classifier,
	forecaster *forecast.Forecaster,
	fetcher marketdata.Fetcher,
	opts Options,
) (*Service, error) {
	funds, err := loader.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	m, err := matcher.Build(funds, logger)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(funds))
	for i, f := range funds {
		index[f.ID] = i
	}

	return &Service{
		logger:     logger.With(zap.String("caller", "RecommendationService")),
		classifier: classifier,
		forecaster: forecaster,
		fetcher:    fetcher,
		matcher:    m,
		funds:      funds,
		index:      index,
		opts:       opts.withDefaults(),
	}, nil
}

// Recommend classifies the profile, matches funds and enriches each match
// with a forecast and metrics. Only an empty match is an error.
func (s *Service) Recommend(ctx context.Context, profile entities.UserProfile) ([]entities.EnrichedFund, error) {
	logger := s.logger.With(zap.String("method", "Recommend"))
	start := time.Now()

	category := s.classifier.Classify(ctx, profile)

	matches := s.matcher.Match(profile, category, s.opts.TopN)
	if len(matches) == 0 {
		return nil, fmt.Errorf("recommend for %s: %w", category, errs.ErrNoMatches)
	}

	funds := make([]entities.Fund, len(matches))
	for i, m := range matches {
		funds[i] = cloneFund(m.Fund)
	}

	if s.fetcher != nil {
		s.refresh(ctx, funds)
	}

	out := make([]entities.EnrichedFund, len(funds))
	for i, f := range funds {
		out[i] = s.enrich(f)
	}

	logger.Info("finish recommend",
		zap.Stringer("category", category),
		zap.Int("funds", len(out)),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

// refresh replaces each fund's series with live data where the fetch works.
// Every call runs under its own timeout and failures only log.
func (s *Service) refresh(ctx context.Context, funds []entities.Fund) {
	logger := s.logger.With(zap.String("method", "refresh"))

	live := make([][]entities.HistoricalPoint, len(funds))
	var benchmark []entities.HistoricalPoint

	var g errgroup.Group
	g.Go(func() error {
		series, err := s.fetch(ctx, s.opts.BenchmarkSymbol)
		if err != nil {
			logger.Warn("benchmark unavailable", zap.String("symbol", s.opts.BenchmarkSymbol), zap.Error(err))
			return nil
		}
		benchmark = series
		return nil
	})
	for i := range funds {
		if funds[i].Symbol == "" {
			continue
		}
		i := i
		g.Go(func() error {
			series, err := s.fetch(ctx, funds[i].Symbol)
			if err != nil {
				logger.Warn("live data unavailable, keeping stored series",
					zap.String("fund", funds[i].ID), zap.String("symbol", funds[i].Symbol), zap.Error(err))
				return nil
			}
			live[i] = series
			return nil
		})
	}
	_ = g.Wait()

	for i := range funds {
		if len(live[i]) == 0 {
			continue
		}
		series := live[i]
		if len(benchmark) > 0 {
			series = marketdata.MergeBenchmark(series, benchmark)
		}
		series, err := entities.NormalizeSeries(series)
		if err != nil || len(series) == 0 {
			logger.Warn("live data unusable, keeping stored series", zap.String("fund", funds[i].ID), zap.Error(err))
			continue
		}
		funds[i].HistoricalData = series
		funds[i].PerformancePercent = series[len(series)-1].Value
	}
}

func (s *Service) fetch(ctx context.Context, symbol string) ([]entities.HistoricalPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
	defer cancel()
	return s.fetcher.FetchMonthlySeries(ctx, symbol, s.opts.HistoryMonths)
}

// enrich never fails: a series that cannot be summarized or projected leaves
// zero metrics or an empty forecast for that fund only.
func (s *Service) enrich(f entities.Fund) entities.EnrichedFund {
	ef := entities.EnrichedFund{
		Fund:                     f,
		MinimumInvestmentDisplay: formatAmount(f.MinimumInvestment, s.opts.Currency),
		Forecast:                 []entities.ForecastPoint{},
	}

	metrics, err := s.forecaster.Metrics(f.ID, f.HistoricalData)
	if err != nil {
		s.logger.Warn("metrics skipped", zap.String("fund", f.ID), zap.Error(err))
	}
	ef.Metrics = metrics

	points, err := s.forecaster.Forecast(f.ID, f.HistoricalData, s.opts.ForecastPeriods)
	if err != nil {
		s.logger.Warn("forecast skipped", zap.String("fund", f.ID), zap.Error(err))
		return ef
	}
	ef.Forecast = points
	return ef
}

// RiskProfile returns the category, display score and explanation.
func (s *Service) RiskProfile(ctx context.Context, profile entities.UserProfile) entities.RiskProfileResp {
	return s.classifier.Profile(ctx, profile)
}

// Funds returns a copy of the catalog.
func (s *Service) Funds() []entities.Fund {
	out := make([]entities.Fund, len(s.funds))
	for i, f := range s.funds {
		out[i] = cloneFund(f)
	}
	return out
}

func (s *Service) lookup(id string) (entities.Fund, error) {
	i, ok := s.index[id]
	if !ok {
		return entities.Fund{}, fmt.Errorf("fund %s: %w", id, errs.ErrNotFound)
	}
	return cloneFund(s.funds[i]), nil
}

// Fund returns one catalog fund with its forecast and metrics.
func (s *Service) Fund(id string) (entities.EnrichedFund, error) {
	f, err := s.lookup(id)
	if err != nil {
		return entities.EnrichedFund{}, err
	}
	return s.enrich(f), nil
}

// Forecast projects periods months of a catalog fund. periods <= 0 uses the
// configured default.
func (s *Service) Forecast(id string, periods int) ([]entities.ForecastPoint, error) {
	f, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if periods <= 0 {
		periods = s.opts.ForecastPeriods
	}
	points, err := s.forecaster.Forecast(f.ID, f.HistoricalData, periods)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", id, err)
	}
	return points, nil
}

func (s *Service) Metrics(id string) (entities.PerformanceMetrics, error) {
	f, err := s.lookup(id)
	if err != nil {
		return entities.PerformanceMetrics{}, err
	}
	return s.forecaster.Metrics(f.ID, f.HistoricalData)
}

func cloneFund(f entities.Fund) entities.Fund {
	f.HistoricalData = append([]entities.HistoricalPoint(nil), f.HistoricalData...)
	return f
}
