package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: время ответа бэкенда оркестрации по эндпоинтам
	GatewayDuration *prometheus.HistogramVec

	// Errors: отказы источников (agents, health), приведшие к деградации в mock
	GatewayFailures *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Cache: попадания в снапшот и пересчеты
	SnapshotCacheHits      prometheus.Counter
	SnapshotRecomputations *prometheus.CounterVec // label: data_source

	// Notify: заполненность буфера событий (backpressure)
	EventBufferFill prometheus.Gauge
	EventsDropped   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		GatewayDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_gateway_request_duration_seconds",
			Help:    "Histogram of orchestration backend request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "outcome"}),

		GatewayFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "console_gateway_failures_total",
			Help: "Total number of backend source failures degraded to synthetic data.",
		}, []string{"source"}), // agents, health

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_circuit_breaker_state",
			Help: "Current state of the gateway circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"breaker"}),

		SnapshotCacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "console_snapshot_cache_hits_total",
			Help: "Total number of metrics requests served from the snapshot cache.",
		}),

		SnapshotRecomputations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "console_snapshot_recomputations_total",
			Help: "Total number of metrics snapshot recomputations by data source.",
		}, []string{"data_source"}),

		EventBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "console_event_buffer_utilization",
			Help: "Current number of state-change events waiting for delivery.",
		}),

		EventsDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "console_events_dropped_total",
			Help: "Total number of state-change events dropped on buffer overflow.",
		}),
	}
}
