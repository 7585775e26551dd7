package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	liveTempC    prometheus.Gauge
	liveRainMM   prometheus.Gauge
	latency      *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainwatch_provider_fetches_total",
				Help: "Total provider fetches by provider and result",
			},
			[]string{"provider", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		liveTempC: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rainwatch_live_temperature_celsius",
				Help: "Last observed live temperature",
			},
		),
		liveRainMM: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rainwatch_live_rainfall_mm",
				Help: "Last observed live rainfall",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rainwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainwatch_cache_lookups_total",
				Help: "Cache lookups by key class and result",
			},
			[]string{"key", "result"},
		),
	}
}

// RecordFetch records a provider fetch outcome.
func (r *Recorder) RecordFetch(provider, result string) {
	r.fetchesTotal.WithLabelValues(provider, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLive records the latest live reading.
func (r *Recorder) RecordLive(tempC, rainMM float64) {
	r.liveTempC.Set(tempC)
	r.liveRainMM.Set(rainMM)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(key, result).Inc()
}
