// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles    prometheus.Counter
	PollFailures  prometheus.Counter
	StartedEvents prometheus.Counter
	StoppedEvents prometheus.Counter
	UpdatedEvents prometheus.Counter

	// Per-endpoint Helix request counters
	APIRequests *prometheus.CounterVec
	APIFailures *prometheus.CounterVec

	// Histograms (seconds)
	PollDuration prometheus.Observer

	// Gauges
	LiveChannelsGauge  prometheus.Gauge
	RateLimitRemaining prometheus.Gauge
	CacheSizeGauge     *prometheus.GaugeVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "dububot_poll_cycles_total", Help: "Number of live-status poll cycles"})
		PollFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "dububot_poll_failures_total", Help: "Number of poll cycles that returned no data"})
		StartedEvents = promauto.NewCounter(prometheus.CounterOpts{Name: "dububot_stream_started_total", Help: "Stream start events announced"})
		StoppedEvents = promauto.NewCounter(prometheus.CounterOpts{Name: "dububot_stream_stopped_total", Help: "Stream stop events announced"})
		UpdatedEvents = promauto.NewCounter(prometheus.CounterOpts{Name: "dububot_stream_updated_total", Help: "Stream game/title update events announced"})
		APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "dububot_helix_requests_total", Help: "Helix request attempts by endpoint"}, []string{"endpoint"})
		APIFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "dububot_helix_failures_total", Help: "Helix requests that exhausted retries by endpoint"}, []string{"endpoint"})
		PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "dububot_poll_duration_seconds", Help: "Poll cycle duration seconds", Buckets: prometheus.DefBuckets})
		LiveChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "dububot_live_channels", Help: "Monitored channels currently live"})
		RateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{Name: "dububot_helix_ratelimit_remaining", Help: "Rate-limit headroom reported by the last Helix response"})
		CacheSizeGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "dububot_cache_entries", Help: "Entries held per metadata cache"}, []string{"cache"})
	})
}

// SetLiveChannels records how many monitored channels are live.
func SetLiveChannels(n int) {
	if LiveChannelsGauge != nil {
		LiveChannelsGauge.Set(float64(n))
	}
}

// SetRateLimitRemaining records the headroom from the last successful Helix call.
func SetRateLimitRemaining(n int) {
	if RateLimitRemaining != nil {
		RateLimitRemaining.Set(float64(n))
	}
}

// SetCacheSize records the entry count of a named cache.
func SetCacheSize(name string, n int) {
	if CacheSizeGauge != nil {
		CacheSizeGauge.WithLabelValues(name).Set(float64(n))
	}
}

// CountAPIRequest increments the attempt counter for a Helix endpoint.
func CountAPIRequest(endpoint string) {
	if APIRequests != nil {
		APIRequests.WithLabelValues(endpoint).Inc()
	}
}

// CountAPIFailure increments the exhausted-retries counter for a Helix endpoint.
func CountAPIFailure(endpoint string) {
	if APIFailures != nil {
		APIFailures.WithLabelValues(endpoint).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
