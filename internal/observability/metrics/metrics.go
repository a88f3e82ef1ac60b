package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "cadence_"

	resultSuccess = "success"
)

var (
	registerOnce sync.Once

	visitRegistrations *prometheus.CounterVec
	visitsRegistered   prometheus.Counter

	evaluationsTotal  *prometheus.CounterVec
	evaluationLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	streamClients prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		visitRegistrations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "visit_registrations_total",
				Help: "Total visit registration requests by result",
			},
			[]string{"result"},
		)
		visitsRegistered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "visits_registered_total",
				Help: "Total visits accepted into storage",
			},
		)

		evaluationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluations_total",
				Help: "Total metric evaluations by metric and result",
			},
			[]string{"metric", "result"},
		)
		evaluationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "evaluation_latency_seconds",
				Help:    "Metric evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "result_export_total",
				Help: "Total result export operations by format and result",
			},
			[]string{"format", "result"},
		)

		streamClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_clients",
				Help: "Connected evaluation stream clients",
			},
		)

		prometheus.MustRegister(
			visitRegistrations,
			visitsRegistered,
			evaluationsTotal,
			evaluationLatency,
			exportTotal,
			streamClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveVisitRegistration records a registration request and accepted count.
func ObserveVisitRegistration(result string, count int) {
	if result == "" {
		result = resultSuccess
	}
	if visitRegistrations != nil {
		visitRegistrations.WithLabelValues(result).Inc()
	}
	if visitsRegistered != nil && count > 0 {
		visitsRegistered.Add(float64(count))
	}
}

// ObserveEvaluation records one metric evaluation.
func ObserveEvaluation(metric, result string, duration time.Duration) {
	if metric == "" {
		metric = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if evaluationsTotal != nil {
		evaluationsTotal.WithLabelValues(metric, result).Inc()
	}
	if evaluationLatency != nil {
		evaluationLatency.WithLabelValues(metric).Observe(duration.Seconds())
	}
}

// ObserveExport records a result export by format.
func ObserveExport(format, result string) {
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// IncStreamClients tracks a new SSE client.
func IncStreamClients() {
	if streamClients != nil {
		streamClients.Inc()
	}
}

// DecStreamClients tracks a departed SSE client.
func DecStreamClients() {
	if streamClients != nil {
		streamClients.Dec()
	}
}
