package sql

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCoinsGet        prometheus.Counter
	prometheusCoinsBatchWrite prometheus.Counter
	prometheusCoinsBatchOps   prometheus.Counter
	prometheusCoinsErrors     *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCoinsGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sql_coins_get",
			Help: "Number of coin get calls done to sql",
		},
	)
	prometheusCoinsBatchWrite = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sql_coins_batch_write",
			Help: "Number of batch writes done to sql",
		},
	)
	prometheusCoinsBatchOps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sql_coins_batch_ops",
			Help: "Number of individual upserts and deletes written to sql",
		},
	)
	prometheusCoinsErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_coins_errors",
			Help: "Number of coin store errors",
		},
		[]string{
			"function", // function raising the error
			"error",    // error returned
		},
	)
}
