package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_requests_total", Help: "Quote adapter calls by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	ProviderCooldowns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_cooldowns_total", Help: "Cooldown periods entered per provider"},
		[]string{"provider"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_fetch_seconds",
			Help:    "Quote adapter call latency per provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	QuotesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_served_total", Help: "Quotes returned by the data manager, by freshness class"},
		[]string{"freshness"},
	)
	NoLiveData = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "no_live_data_total", Help: "get_quote calls that exhausted every provider"},
	)
	Recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "recommendations_total", Help: "Recommendations emitted by signal"},
		[]string{"signal"},
	)
	NoDecisions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "no_decisions_total", Help: "Decision cycles that produced zero usable factors"},
	)
	CycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decision_cycle_seconds",
			Help:    "Wall time of one symbol's decision cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(ProviderRequests, ProviderCooldowns, ProviderLatency, QuotesServed, NoLiveData, Recommendations, NoDecisions, CycleDuration)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
