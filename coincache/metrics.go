package coincache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCacheHits     prometheus.Counter
	prometheusCacheMisses   prometheus.Counter
	prometheusCacheMemUsage prometheus.Gauge
	prometheusCacheEntries  prometheus.Gauge
	prometheusFlushTotal    *prometheus.CounterVec
	prometheusFlushCoins    prometheus.Counter
	prometheusFlushErrors   prometheus.Counter
	prometheusFlushDuration prometheus.Histogram

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coincache_hits",
			Help: "Number of coin reads served from the cache",
		},
	)
	prometheusCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coincache_misses",
			Help: "Number of coin reads that fell through to the store",
		},
	)
	prometheusCacheMemUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coincache_mem_usage_bytes",
			Help: "Live memory accounting of the coin cache",
		},
	)
	prometheusCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coincache_entries",
			Help: "Number of resident cache entries",
		},
	)
	prometheusFlushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coincache_flush_total",
			Help: "Number of successful flushes",
		},
		[]string{
			"mode", // flush mode the flush ran under
		},
	)
	prometheusFlushCoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coincache_flush_coins",
			Help: "Number of dirty coins committed by flushes",
		},
	)
	prometheusFlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coincache_flush_errors",
			Help: "Number of failed flush commits",
		},
	)
	prometheusFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coincache_flush_duration_seconds",
			Help:    "Wall clock duration of flushes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)
}

// PrometheusSink is an EventSink that records flush events as prometheus
// metrics. Wire it as the controller's sink (or as one member of a fan-out
// sink) to get flush observability without an external collector.
type PrometheusSink struct{}

func (PrometheusSink) Emit(event FlushEvent) {
	initPrometheusMetrics()

	prometheusFlushTotal.WithLabelValues(FlushMode(event.Mode).String()).Inc()
	prometheusFlushCoins.Add(float64(event.CoinsCount))
	prometheusFlushDuration.Observe(float64(event.Duration) / 1e6)
}
