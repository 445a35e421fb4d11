package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ledger_"

	// ResultSuccess labels successful operations.
	ResultSuccess = "success"
	// ResultError labels failed operations.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	postTotal   *prometheus.CounterVec
	postLatency *prometheus.HistogramVec

	cancelTotal  *prometheus.CounterVec
	reverseTotal *prometheus.CounterVec

	closeTotal   *prometheus.CounterVec
	closeLatency *prometheus.HistogramVec

	checkRunTotal   *prometheus.CounterVec
	checkRunLatency *prometheus.HistogramVec
	checkResults    *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		postTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "post_total",
				Help: "Total document post operations by result",
			},
			[]string{"result"},
		)
		postLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "post_latency_seconds",
				Help:    "Document post latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		cancelTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cancel_total",
				Help: "Total document cancel operations by result",
			},
			[]string{"result"},
		)
		reverseTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reverse_total",
				Help: "Total reversing-entry operations by result",
			},
			[]string{"result"},
		)

		closeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "period_close_total",
				Help: "Total period close operations by result",
			},
			[]string{"result"},
		)
		closeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "period_close_latency_seconds",
				Help:    "Period close latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		checkRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "check_run_total",
				Help: "Total closing-check engine runs by result",
			},
			[]string{"result"},
		)
		checkRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "check_run_latency_seconds",
				Help:    "Closing-check engine run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		checkResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "check_results_total",
				Help: "Closing check outcomes by check and status",
			},
			[]string{"check", "status"},
		)

		prometheus.MustRegister(
			postTotal, postLatency,
			cancelTotal, reverseTotal,
			closeTotal, closeLatency,
			checkRunTotal, checkRunLatency, checkResults,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePost records a post operation.
func ObservePost(result string, duration time.Duration) {
	if postTotal == nil {
		return
	}
	postTotal.WithLabelValues(result).Inc()
	postLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCancel records a cancel operation.
func ObserveCancel(result string) {
	if cancelTotal == nil {
		return
	}
	cancelTotal.WithLabelValues(result).Inc()
}

// ObserveReverse records a reversing-entry operation.
func ObserveReverse(result string) {
	if reverseTotal == nil {
		return
	}
	reverseTotal.WithLabelValues(result).Inc()
}

// ObserveClose records a period close operation.
func ObserveClose(result string, duration time.Duration) {
	if closeTotal == nil {
		return
	}
	closeTotal.WithLabelValues(result).Inc()
	closeLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCheckRun records a closing-check engine run.
func ObserveCheckRun(result string, duration time.Duration) {
	if checkRunTotal == nil {
		return
	}
	checkRunTotal.WithLabelValues(result).Inc()
	checkRunLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCheckResult records a single check outcome.
func ObserveCheckResult(check, status string) {
	if checkResults == nil {
		return
	}
	checkResults.WithLabelValues(check, status).Inc()
}
