package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes the pipeline, collector and API metrics using Prometheus.
// Each Recorder owns its registry, so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	tickerOutcomes   *prometheus.CounterVec
	runDuration      prometheus.Histogram
	trainDuration    prometheus.Histogram
	recordsPersisted prometheus.Counter
	collectedRows    *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tickerOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investai_forecast_tickers_total",
				Help: "Tickers handled by the forecast pipeline by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "investai_forecast_run_duration_seconds",
				Help:    "Duration of complete forecast runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		trainDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "investai_forecast_train_duration_seconds",
				Help:    "Duration of per-ticker model training",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		recordsPersisted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "investai_forecast_records_persisted_total",
				Help: "Forecast records appended to storage",
			},
		),
		collectedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investai_collector_rows_total",
				Help: "Scraped snapshot rows by status",
			},
			[]string{"status"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investai_scheduler_job_runs_total",
				Help: "Scheduled job executions by job and result",
			},
			[]string{"job", "result"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "investai_http_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}
}

// RecordTickerOutcome counts one ticker as processed, skipped or failed
func (r *Recorder) RecordTickerOutcome(outcome string) {
	r.tickerOutcomes.WithLabelValues(outcome).Inc()
}

// RecordRun records the duration of a whole forecast run
func (r *Recorder) RecordRun(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}

// RecordTraining records the training duration of one ticker
func (r *Recorder) RecordTraining(d time.Duration) {
	r.trainDuration.Observe(d.Seconds())
}

// RecordPersisted adds n to the persisted forecast records counter
func (r *Recorder) RecordPersisted(n int) {
	r.recordsPersisted.Add(float64(n))
}

// RecordCollected counts one scraped row as "ok" or "failed"
func (r *Recorder) RecordCollected(status string) {
	r.collectedRows.WithLabelValues(status).Inc()
}

// RecordJobRun counts one scheduled job execution
func (r *Recorder) RecordJobRun(job string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.jobRuns.WithLabelValues(job, result).Inc()
}

// RecordHTTP records API request latency
func (r *Recorder) RecordHTTP(route, status string, d time.Duration) {
	r.httpDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

// Registry exposes the underlying registry (tests, custom collectors)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
