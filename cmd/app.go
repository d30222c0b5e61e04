package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/catalog"
	"github.com/e-mutai/pesa-smart-guide/config"
	"github.com/e-mutai/pesa-smart-guide/forecast"
	"github.com/e-mutai/pesa-smart-guide/marketdata"
	"github.com/e-mutai/pesa-smart-guide/recommend"
	"github.com/e-mutai/pesa-smart-guide/risk"
)

const modelName = "risk_classifier"

// openDB returns nil when no sqlite path is configured.
func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.Catalog.SQLitePath == "" {
		return nil, nil
	}
	db, err := catalog.OpenSQLite(cfg.Catalog.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func newClassifier(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*risk.Classifier, error) {
	var store risk.ModelStore = risk.NewFileModelStore(cfg.Model.Path)
	if cfg.Model.SQLite {
		if db == nil {
			return nil, fmt.Errorf("model.sqlite needs catalog.sqlite_path")
		}
		s, err := risk.NewSQLiteModelStore(db, modelName)
		if err != nil {
			return nil, fmt.Errorf("model store: %w", err)
		}
		store = s
	}
	return risk.NewClassifier(store, logger), nil
}

func historySources(cfg *config.Config) []catalog.HistorySource {
	var history []catalog.HistorySource
	if cfg.Catalog.HistoryDir != "" {
		history = append(history, catalog.CSVHistory{Dir: cfg.Catalog.HistoryDir})
	}
	return append(history, catalog.NewSyntheticHistory(cfg.Catalog.HistoryMonths, cfg.Catalog.HistorySeed))
}

// newProvider orders sources sqlite, file, static.
func newProvider(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*catalog.Provider, error) {
	var sources []catalog.Source
	if db != nil {
		src, err := catalog.NewSQLiteSource(db)
		if err != nil {
			return nil, fmt.Errorf("catalog store: %w", err)
		}
		sources = append(sources, src)
	}
	if cfg.Catalog.File != "" {
		sources = append(sources, catalog.FileSource{Path: cfg.Catalog.File})
	}
	return catalog.NewProvider(logger, sources, historySources(cfg)), nil
}

func newFetcher(cfg *config.Config, logger *zap.Logger) marketdata.Fetcher {
	if !cfg.Market.Enabled {
		return nil
	}
	client := &http.Client{Timeout: cfg.Market.Timeout}
	return marketdata.NewAlphaVantageClient(client, cfg.Market.BaseURL, cfg.Market.APIKey, logger)
}

// buildService wires the whole pipeline. The returned cleanup closes the
// database, if one was opened.
func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*recommend.Service, func(), error) {
	cleanup := func() {}

	db, err := openDB(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if db != nil {
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Error(fmt.Errorf("close sqlite: %w", err).Error())
			}
		}
	}

	classifier, err := newClassifier(cfg, db, logger)
	if err != nil {
		return nil, cleanup, err
	}
	classifier.Warm(ctx)

	provider, err := newProvider(cfg, db, logger)
	if err != nil {
		return nil, cleanup, err
	}

	svc, err := recommend.New(ctx, logger, provider, classifier, forecast.NewForecaster(logger), newFetcher(cfg, logger), recommend.Options{
		TopN:            cfg.Recommend.TopN,
		ForecastPeriods: cfg.Forecast.Periods,
		HistoryMonths:   cfg.Catalog.HistoryMonths,
		BenchmarkSymbol: cfg.Market.BenchmarkSymbol,
		RefreshTimeout:  cfg.Market.Timeout,
		Currency:        cfg.Recommend.Currency,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("build recommendation service: %w", err)
	}
	return svc, cleanup, nil
}

// dialRabbit opens a connection and a channel. Closing the connection closes
// the channel too.
func dialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("rabbit url is empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open a channel: %w", err)
	}
	return conn, ch, nil
}
