package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// Source is one backing store of the fund catalog.
type Source interface {
	Name() string
	LoadCatalog(ctx context.Context) ([]entities.Fund, error)
}

// HistorySource supplies a historical series for a fund that came without
// one. It returns errs.ErrNotFound when it has nothing for that fund.
type HistorySource interface {
	Name() string
	History(ctx context.Context, fund entities.Fund) ([]entities.HistoricalPoint, error)
}

// Provider asks its sources in order and uses the first non-empty catalog.
// The built-in static catalog is always the last resort.
type Provider struct {
	logger  *zap.Logger
	sources []Source
	history []HistorySource
}

func NewProvider(logger *zap.Logger, sources []Source, history []HistorySource) *Provider {
	chain := append([]Source(nil), sources...)
	if len(chain) == 0 || chain[len(chain)-1].Name() != (StaticSource{}).Name() {
		chain = append(chain, StaticSource{})
	}
	return &Provider{
		logger:  logger.With(zap.String("caller", "CatalogProvider")),
		sources: chain,
		history: history,
	}
}

func (p *Provider) LoadCatalog(ctx context.Context) ([]entities.Fund, error) {
	logger := p.logger.With(zap.String("method", "LoadCatalog"))

	for _, src := range p.sources {
		start := time.Now()
		funds, err := src.LoadCatalog(ctx)
		if err == nil && len(funds) == 0 {
			err = errs.ErrEmptyCatalog
		}
		if err == nil {
			err = checkFunds(funds)
		}
		if err != nil {
			logger.Warn("catalog source failed, trying next",
				zap.String("source", src.Name()), zap.Error(err))
			continue
		}

		p.fillHistory(ctx, funds)
		logger.Info("catalog loaded",
			zap.String("source", src.Name()),
			zap.Int("funds", len(funds)),
			zap.Duration("duration", time.Since(start)))
		return funds, nil
	}

	return nil, fmt.Errorf("load catalog: %w", errs.ErrEmptyCatalog)
}

// fillHistory orders every stored history by period and replaces missing or
// unusable ones from the history sources.
func (p *Provider) fillHistory(ctx context.Context, funds []entities.Fund) {
	for i := range funds {
		if len(funds[i].HistoricalData) > 0 {
			series, err := entities.NormalizeSeries(funds[i].HistoricalData)
			if err == nil {
				funds[i].HistoricalData = series
				continue
			}
			p.logger.Warn("stored history unusable, refilling",
				zap.String("fund", funds[i].ID), zap.Error(err))
			funds[i].HistoricalData = nil
		}
		for _, h := range p.history {
			series, err := h.History(ctx, funds[i])
			if err == nil {
				series, err = entities.NormalizeSeries(series)
			}
			if err != nil {
				if !errors.Is(err, errs.ErrNotFound) {
					p.logger.Warn("history source failed",
						zap.String("source", h.Name()), zap.String("fund", funds[i].ID), zap.Error(err))
				}
				continue
			}
			if len(series) > 0 {
				funds[i].HistoricalData = series
				break
			}
		}
	}
}

// checkFunds rejects a catalog carrying NaN or infinite figures.
func checkFunds(funds []entities.Fund) error {
	for _, f := range funds {
		if !entities.Finite(f.PerformancePercent, f.Fee, f.MinimumInvestment) {
			return fmt.Errorf("fund %s: non-finite figure", f.ID)
		}
	}
	return nil
}
