package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"trade-advisor/internal/interfaces"
	"trade-advisor/internal/logger"
	"trade-advisor/internal/metrics"
	"trade-advisor/internal/store"
	"trade-advisor/internal/trace"
	"trade-advisor/internal/types"
)

// Manager orchestrates the provider adapters through the Connection
// Monitor. Every GetQuote call walks the ranked provider list until one
// returns usable data; results are never cached across calls so freshness
// is always relative to call time.
type Manager struct {
	monitor  *Monitor
	adapters map[string]interfaces.QuoteAdapter
	limiters map[string]*rate.Limiter
	timeout  time.Duration
	bounds   FreshnessBounds
	now      func() time.Time
}

func NewManager(cfg *store.Config, monitor *Monitor, adapters []interfaces.QuoteAdapter) *Manager {
	m := &Manager{
		monitor:  monitor,
		adapters: make(map[string]interfaces.QuoteAdapter, len(adapters)),
		limiters: make(map[string]*rate.Limiter, len(adapters)),
		timeout:  cfg.AdapterTimeout(),
		bounds:   BoundsFromConfig(cfg),
		now:      time.Now,
	}
	for _, a := range adapters {
		m.adapters[a.Name()] = a
	}
	for _, p := range cfg.Providers.List {
		if p.RatePerSec > 0 {
			m.limiters[p.Name] = rate.NewLimiter(rate.Limit(p.RatePerSec), 1)
		}
	}
	return m
}

// SetClock replaces the manager's clock. Test hook.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// GetQuote returns one canonical, validated quote for symbol, or
// ErrNoLiveData when every ranked provider failed or returned expired
// data. The freshness class is derived at call time and returned alongside
// the quote; STALE results are served with a warning event.
func (m *Manager) GetQuote(ctx context.Context, symbol string) (types.Quote, types.Freshness, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.GetQuote")
	defer span.End()

	for _, name := range m.monitor.Rank() {
		if err := ctx.Err(); err != nil {
			return types.Quote{}, types.Expired, err
		}
		adapter, ok := m.adapters[name]
		if !ok {
			continue
		}
		if lim := m.limiters[name]; lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return types.Quote{}, types.Expired, err
			}
		}

		quote, err := m.fetch(ctx, adapter, symbol)
		if err != nil {
			// The health report still lands even when the caller
			// cancelled mid-flight.
			m.monitor.Report(ctx, name, err)
			logger.Provider(ctx, name, "REJECTED", "symbol", symbol, "reason", err.Error())
			if ctx.Err() != nil {
				return types.Quote{}, types.Expired, ctx.Err()
			}
			continue
		}

		freshness := Classify(quote.CapturedAt, m.now(), m.bounds)
		if freshness == types.Expired {
			// The connection worked; only the data is too old.
			m.monitor.Report(ctx, name, nil)
			logger.Provider(ctx, name, "REJECTED", "symbol", symbol,
				"reason", "expired quote",
				"captured_at", quote.CapturedAt.Format(time.RFC3339),
			)
			continue
		}

		m.monitor.Report(ctx, name, nil)
		metrics.QuotesServed.WithLabelValues(freshness.String()).Inc()
		if freshness == types.Stale {
			logger.Warn(ctx, "Serving stale quote", "symbol", symbol,
				"provider", name,
				"age_seconds", m.now().Sub(quote.CapturedAt).Seconds(),
			)
		}
		logger.Debug(ctx, "Quote served", "symbol", symbol, "provider", name,
			"last", quote.Last, "freshness", freshness.String())
		return quote, freshness, nil
	}

	metrics.NoLiveData.Inc()
	logger.Warn(ctx, "All providers exhausted", "symbol", symbol)
	return types.Quote{}, types.Expired, fmt.Errorf("%w: symbol %s", ErrNoLiveData, symbol)
}

// fetch invokes one adapter under the bounded timeout and validates the
// returned quote.
func (m *Manager) fetch(ctx context.Context, adapter interfaces.QuoteAdapter, symbol string) (types.Quote, error) {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := m.now()
	quote, err := adapter.FetchQuote(cctx, symbol)
	metrics.ProviderLatency.WithLabelValues(adapter.Name()).Observe(m.now().Sub(start).Seconds())
	if err != nil {
		kind := KindError
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return types.Quote{}, &ProviderError{Provider: adapter.Name(), Kind: kind, Err: err}
	}
	if !quote.Valid() {
		return types.Quote{}, &ProviderError{
			Provider: adapter.Name(),
			Kind:     KindBadData,
			Err:      fmt.Errorf("invalid quote bid=%.4f last=%.4f ask=%.4f", quote.Bid, quote.Last, quote.Ask),
		}
	}
	return quote, nil
}
