package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// MockFetcher serves canned series. Symbols it does not know, or listed in
// Fail, come back as unavailable. Delay is honoured against ctx.
type MockFetcher struct {
	Series map[string][]entities.HistoricalPoint
	Fail   map[string]bool
	Delay  time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) FetchMonthlySeries(ctx context.Context, symbol string, months int) ([]entities.HistoricalPoint, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch %s: %w: %w", symbol, errs.ErrUpstreamUnavailable, ctx.Err())
		}
	}

	series, ok := m.Series[symbol]
	if !ok || m.Fail[symbol] {
		return nil, fmt.Errorf("fetch %s: %w", symbol, errs.ErrUpstreamUnavailable)
	}
	if months > 0 && len(series) > months {
		series = series[len(series)-months:]
	}
	return append([]entities.HistoricalPoint(nil), series...), nil
}

func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}
