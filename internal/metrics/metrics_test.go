package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
)

func sampleReport() *indicators.BatchReport {
	result := func(code string, cat contracts.Category, value string, alert bool) indicators.IndicatorResult {
		return indicators.IndicatorResult{
			Indicator: contracts.Indicator{Code: code, Category: cat},
			Measurement: contracts.Measurement{
				Value:   decimal.RequireFromString(value),
				InAlert: alert,
			},
		}
	}
	return &indicators.BatchReport{
		RunID:  "run-1",
		Period: contracts.Period{LineID: 3, Year: 2024, Month: 1},
		Results: []indicators.IndicatorResult{
			result("KPI-001", contracts.CategoryGestion, "60", true),
			result("KPI-002", contracts.CategoryGestion, "95.5", false),
			result("KPI-005", contracts.CategorySeguridad, "100", false),
		},
		Skipped: []indicators.SkippedIndicator{
			{Indicator: contracts.Indicator{Code: "KPI-X", Category: "FINANCIERO"}},
		},
		Duration: 250 * time.Millisecond,
	}
}

func TestOnBatch(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.OnBatch(context.Background(), sampleReport())

	assert.Equal(t, float64(1), testutil.ToFloat64(r.batches.WithLabelValues("ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.measurements.WithLabelValues("GESTION")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.measurements.WithLabelValues("SEGURIDAD")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.skipped.WithLabelValues("FINANCIERO")))
	assert.Equal(t, 95.5, testutil.ToFloat64(r.lastValue.WithLabelValues("3", "KPI-002")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.alerts.WithLabelValues("3")))
}

func TestBatchFailed(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.BatchFailed()
	r.BatchFailed()

	assert.Equal(t, float64(2), testutil.ToFloat64(r.batches.WithLabelValues("error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.ObserveRequest("/api/indicadores", http.MethodGet, http.StatusOK, 12*time.Millisecond)
	r.OnBatch(context.Background(), sampleReport())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `transmaint_http_requests_total{method="GET",route="/api/indicadores",status="200"} 1`), body)
	assert.Contains(t, body, "transmaint_indicator_batch_duration_seconds_count 1")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.BatchFailed()
		r.OnBatch(context.Background(), sampleReport())
		r.ObserveRequest("/health", http.MethodGet, http.StatusOK, time.Millisecond)
	})
}
