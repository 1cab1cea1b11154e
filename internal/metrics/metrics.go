package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digipog_transfers_total",
			Help: "Peer transfers by result",
		},
		[]string{"result"}, // success|failure
	)
	AwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digipog_awards_total",
			Help: "Awards by target type",
		},
		[]string{"target"}, // user|pool|class
	)
	PoolPayoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digipog_pool_payouts_total",
			Help: "Successful pool payouts",
		},
	)
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digipog_rate_limited_total",
			Help: "Operations denied by the rate guard",
		},
	)
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(TransfersTotal)
	prometheus.MustRegister(AwardsTotal)
	prometheus.MustRegister(PoolPayoutsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(WorkerQueueDepth)
	prometheus.MustRegister(HTTPLatency)
}
