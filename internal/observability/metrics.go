// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RFM metrics
	RFMBatchesTotal       *prometheus.CounterVec
	TransactionsProcessed prometheus.Counter
	CustomersProfiled     prometheus.Counter
	RFMErrors             *prometheus.CounterVec
	AggregationLatency    prometheus.Histogram

	// Scoring metrics
	PredictionsTotal *prometheus.CounterVec
	PredictLatency   prometheus.Histogram
	PredictErrors    *prometheus.CounterVec
	ModelInfo        *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ProfilesStored    prometheus.Counter
	CacheWrites       *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "credit_risk"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// RFM metrics
		RFMBatchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "batches_total",
			Help:      "Total number of transaction batches aggregated by source",
		}, []string{"source"}),
		TransactionsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "transactions_processed_total",
			Help:      "Total number of transaction rows aggregated",
		}),
		CustomersProfiled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "customers_profiled_total",
			Help:      "Total number of customer profiles produced",
		}),
		RFMErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "errors_total",
			Help:      "Total number of rejected batches by error kind",
		}, []string{"kind"}),
		AggregationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "aggregation_latency_seconds",
			Help:      "RFM aggregation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Scoring metrics
		PredictionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "predictions_total",
			Help:      "Total number of predictions by risk label",
		}, []string{"label"}),
		PredictLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "predict_latency_seconds",
			Help:      "Prediction latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		PredictErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "errors_total",
			Help:      "Total number of failed predictions by error kind",
		}, []string{"kind"}),
		ModelInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "model_info",
			Help:      "Loaded model version, value is the feature count",
		}, []string{"version"}),

		// HTTP metrics
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Pipeline metrics
		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		ProfilesStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "profiles_stored_total",
			Help:      "Total number of customer profiles written to the profile store",
		}),
		CacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cache_writes_total",
			Help:      "Total number of profile cache writes by status",
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordRFMBatch records a successful aggregation.
func RecordRFMBatch(source string, transactions, customers int, seconds float64) {
	DefaultMetrics.RFMBatchesTotal.WithLabelValues(source).Inc()
	DefaultMetrics.TransactionsProcessed.Add(float64(transactions))
	DefaultMetrics.CustomersProfiled.Add(float64(customers))
	DefaultMetrics.AggregationLatency.Observe(seconds)
}

// RecordRFMError records a rejected batch.
func RecordRFMError(kind string) {
	DefaultMetrics.RFMErrors.WithLabelValues(kind).Inc()
}

// RecordPrediction records a successful prediction.
func RecordPrediction(label int, seconds float64) {
	DefaultMetrics.PredictionsTotal.WithLabelValues(strconv.Itoa(label)).Inc()
	DefaultMetrics.PredictLatency.Observe(seconds)
}

// RecordPredictError records a failed prediction.
func RecordPredictError(kind string) {
	DefaultMetrics.PredictErrors.WithLabelValues(kind).Inc()
}

// SetModelInfo publishes the loaded model version.
func SetModelInfo(version string, features int) {
	DefaultMetrics.ModelInfo.Reset()
	DefaultMetrics.ModelInfo.WithLabelValues(version).Set(float64(features))
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, status int, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordProfilesStored adds n to the stored profiles counter.
func RecordProfilesStored(n int) {
	DefaultMetrics.ProfilesStored.Add(float64(n))
}

// RecordCacheWrite records a profile cache write.
func RecordCacheWrite(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.CacheWrites.WithLabelValues(status).Inc()
}

// MarkPipelineSuccess sets the last successful pipeline timestamp.
func MarkPipelineSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulPipeline.Set(float64(unixSeconds))
}
