package marketdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"trade-advisor/internal/logger"
	"trade-advisor/internal/metrics"
	"trade-advisor/internal/store"
)

// ProviderHealth is a read-only snapshot of one provider's health state,
// exposed for diagnostics. The live state is owned by the Monitor.
type ProviderHealth struct {
	Provider          string
	Priority          int
	ConsecutiveErrors int
	LastSuccess       time.Time
	LastError         time.Time
	CooldownUntil     time.Time
	EverSucceeded     bool
}

// MonitorConfig holds the cooldown policy constants.
type MonitorConfig struct {
	ErrorThreshold int           // consecutive errors before cooldown
	CooldownBase   time.Duration // base of the exponential interval
	CooldownMax    time.Duration // cap
}

// MonitorConfigFrom extracts the policy constants from the config surface.
func MonitorConfigFrom(cfg *store.Config) MonitorConfig {
	return MonitorConfig{
		ErrorThreshold: cfg.Providers.Cooldown.ErrorThreshold,
		CooldownBase:   time.Duration(cfg.Providers.Cooldown.BaseSeconds) * time.Second,
		CooldownMax:    time.Duration(cfg.Providers.Cooldown.MaxSeconds) * time.Second,
	}
}

// health is the mutable per-provider record. Each record carries its own
// lock so one provider's report never blocks another provider's lookup.
type health struct {
	mu                sync.Mutex
	name              string
	priority          int
	consecutiveErrors int
	lastSuccess       time.Time
	lastError         time.Time
	cooldownUntil     time.Time
	everSucceeded     bool
}

// Monitor tracks per-provider health and produces the ranked list of
// currently usable providers. The provider set is fixed at construction;
// only the per-provider records mutate afterwards.
type Monitor struct {
	cfg       MonitorConfig
	providers map[string]*health
	ordered   []*health // sorted by priority at construction
	now       func() time.Time
}

// ProviderEntry registers one provider with the monitor.
type ProviderEntry struct {
	Name     string
	Priority int
}

func NewMonitor(cfg MonitorConfig, entries []ProviderEntry) *Monitor {
	m := &Monitor{
		cfg:       cfg,
		providers: make(map[string]*health, len(entries)),
		now:       time.Now,
	}
	for _, e := range entries {
		h := &health{name: e.Name, priority: e.Priority}
		m.providers[e.Name] = h
		m.ordered = append(m.ordered, h)
	}
	sort.SliceStable(m.ordered, func(i, j int) bool {
		return m.ordered[i].priority < m.ordered[j].priority
	})
	return m
}

// SetClock replaces the monitor's clock. Test hook.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// Report records the outcome of one adapter call. A nil err is a success;
// a success after cooldown elapses resets the consecutive-error count and
// returns the provider to normal ranking. Crossing the error threshold
// enters an exponentially growing cooldown (base x 2^consecutive, capped).
func (m *Monitor) Report(ctx context.Context, provider string, err error) {
	h, ok := m.providers[provider]
	if !ok {
		return
	}
	now := m.now()

	h.mu.Lock()
	if err == nil {
		wasCooling := now.Before(h.cooldownUntil)
		h.consecutiveErrors = 0
		h.cooldownUntil = time.Time{}
		h.lastSuccess = now
		h.everSucceeded = true
		h.mu.Unlock()

		metrics.ProviderRequests.WithLabelValues(provider, "success").Inc()
		if wasCooling {
			logger.Provider(ctx, provider, "RECOVERED")
		}
		return
	}

	h.consecutiveErrors++
	h.lastError = now
	entered := false
	var until time.Time
	if h.consecutiveErrors >= m.cfg.ErrorThreshold {
		until = now.Add(m.cooldownInterval(h.consecutiveErrors))
		if until.After(h.cooldownUntil) {
			h.cooldownUntil = until
			entered = true
		}
	}
	consecutive := h.consecutiveErrors
	h.mu.Unlock()

	metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
	if entered {
		metrics.ProviderCooldowns.WithLabelValues(provider).Inc()
		logger.Provider(ctx, provider, "COOLDOWN_ENTERED",
			"consecutive_errors", consecutive,
			"cooldown_until", until.Format(time.RFC3339),
			"error", err.Error(),
		)
	}
}

// cooldownInterval computes base x 2^consecutive, capped. The shift is
// clamped so the multiplication cannot overflow.
func (m *Monitor) cooldownInterval(consecutive int) time.Duration {
	shift := consecutive
	if shift > 16 {
		shift = 16
	}
	d := m.cfg.CooldownBase << uint(shift)
	if d > m.cfg.CooldownMax || d <= 0 {
		d = m.cfg.CooldownMax
	}
	return d
}

// Rank returns providers ordered by priority among those not currently in
// cooldown. If every provider is cooling down, the one with the soonest
// cooldown expiry is returned alone so callers can probe it; the list is
// only empty when no providers are registered.
func (m *Monitor) Rank() []string {
	now := m.now()

	usable := make([]string, 0, len(m.ordered))
	var soonest *health
	var soonestUntil time.Time
	for _, h := range m.ordered {
		h.mu.Lock()
		until := h.cooldownUntil
		h.mu.Unlock()

		if until.IsZero() || !now.Before(until) {
			usable = append(usable, h.name)
			continue
		}
		if soonest == nil || until.Before(soonestUntil) {
			soonest, soonestUntil = h, until
		}
	}
	if len(usable) == 0 && soonest != nil {
		return []string{soonest.name}
	}
	return usable
}

// Health returns a diagnostic snapshot for one provider.
func (m *Monitor) Health(provider string) (ProviderHealth, bool) {
	h, ok := m.providers[provider]
	if !ok {
		return ProviderHealth{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return ProviderHealth{
		Provider:          h.name,
		Priority:          h.priority,
		ConsecutiveErrors: h.consecutiveErrors,
		LastSuccess:       h.lastSuccess,
		LastError:         h.lastError,
		CooldownUntil:     h.cooldownUntil,
		EverSucceeded:     h.everSucceeded,
	}, true
}
