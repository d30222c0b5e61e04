package forecast

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

const DefaultPeriods = 6

// Forecaster keeps one fitted model per fund and history. A fund whose history
// changes gets a new model; an unchanged history reuses the cached one.
type Forecaster struct {
	logger *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex
	models map[string]*Model
	fits   singleflight.Group
}

func NewForecaster(logger *zap.Logger) *Forecaster {
	return &Forecaster{
		logger: logger.With(zap.String("caller", "Forecaster")),
		now:    time.Now,
		models: make(map[string]*Model),
	}
}

// Forecast projects periods monthly points for the fund. Non-positive periods
// fall back to DefaultPeriods.
func (f *Forecaster) Forecast(fundID string, series []entities.HistoricalPoint, periods int) ([]entities.ForecastPoint, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("forecast fund %s: %w", fundID, errs.ErrInvalidSeries)
	}
	if periods <= 0 {
		periods = DefaultPeriods
	}

	mdl, err := f.model(fundID, series)
	if err != nil {
		return nil, fmt.Errorf("forecast fund %s: %w", fundID, err)
	}

	points, err := mdl.Predict(periods, f.now())
	if err != nil {
		return nil, fmt.Errorf("forecast fund %s: %w", fundID, err)
	}
	return points, nil
}

func (f *Forecaster) Metrics(fundID string, series []entities.HistoricalPoint) (entities.PerformanceMetrics, error) {
	m, err := Metrics(series)
	if err != nil {
		return entities.PerformanceMetrics{}, fmt.Errorf("metrics fund %s: %w", fundID, err)
	}
	return m, nil
}

func (f *Forecaster) cached() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.models)
}

func (f *Forecaster) model(fundID string, series []entities.HistoricalPoint) (*Model, error) {
	key := seriesKey(fundID, series)

	f.mu.RLock()
	mdl, ok := f.models[key]
	f.mu.RUnlock()
	if ok {
		return mdl, nil
	}

	v, err, _ := f.fits.Do(key, func() (any, error) {
		f.mu.RLock()
		cached, ok := f.models[key]
		f.mu.RUnlock()
		if ok {
			return cached, nil
		}

		start := time.Now()
		fitted, err := Fit(series)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.models[key] = fitted
		f.mu.Unlock()

		f.logger.Debug("fitted trend model",
			zap.String("fund", fundID),
			zap.Int("points", len(series)),
			zap.Int("cached", f.cached()),
			zap.Duration("duration", time.Since(start)))
		return fitted, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Model), nil
}

func seriesKey(fundID string, series []entities.HistoricalPoint) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range series {
		h.Write([]byte(p.Date))
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.Value))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%s:%x", fundID, h.Sum64())
}
