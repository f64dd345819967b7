// Package metrics exposes Prometheus collectors for indicator batches and the HTTP API
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transmaint/backend/internal/indicators"
)

const namespace = "transmaint"

// Recorder owns every collector of the service
// ⭐ SSOT: nombres de métricas definidos solo aquí
type Recorder struct {
	gatherer prometheus.Gatherer

	batches          *prometheus.CounterVec
	measurements     *prometheus.CounterVec
	skipped          *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	lastValue        *prometheus.GaugeVec
	alerts           *prometheus.GaugeVec
	requestsTotal    *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		gatherer: reg,
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indicator_batches_total",
				Help:      "Indicator batches by outcome",
			},
			[]string{"status"},
		),
		measurements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "measurements_upserted_total",
				Help:      "Measurements written, by indicator category",
			},
			[]string{"categoria"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indicators_skipped_total",
				Help:      "Indicators skipped because their category has no calculator",
			},
			[]string{"categoria"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "indicator_batch_duration_seconds",
				Help:      "Duration of one indicator batch",
				Buckets:   prometheus.DefBuckets,
			},
		),
		lastValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "indicator_value_percent",
				Help:      "Last computed value per line and indicator",
			},
			[]string{"linea", "indicador"},
		),
		alerts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "indicators_in_alert",
				Help:      "Indicators below their alert threshold in the last batch of a line",
			},
			[]string{"linea"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route", "method"},
		),
	}

	reg.MustRegister(
		r.batches,
		r.measurements,
		r.skipped,
		r.batchDuration,
		r.lastValue,
		r.alerts,
		r.requestsTotal,
		r.requestDurations,
	)
	return r
}

// OnBatch implements indicators.BatchObserver. A nil Recorder records nothing.
func (r *Recorder) OnBatch(_ context.Context, report *indicators.BatchReport) {
	if r == nil {
		return
	}
	line := strconv.FormatInt(report.Period.LineID, 10)

	r.batches.WithLabelValues("ok").Inc()
	r.batchDuration.Observe(report.Duration.Seconds())

	inAlert := 0
	for _, res := range report.Results {
		r.measurements.WithLabelValues(string(res.Indicator.Category)).Inc()
		value, _ := res.Measurement.Value.Float64()
		r.lastValue.WithLabelValues(line, res.Indicator.Code).Set(value)
		if res.Measurement.InAlert {
			inAlert++
		}
	}
	r.alerts.WithLabelValues(line).Set(float64(inAlert))

	for _, s := range report.Skipped {
		r.skipped.WithLabelValues(string(s.Indicator.Category)).Inc()
	}
}

// BatchFailed counts a batch that returned an error
func (r *Recorder) BatchFailed() {
	if r == nil {
		return
	}
	r.batches.WithLabelValues("error").Inc()
}

// ObserveRequest records one HTTP request
func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.requestDurations.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
