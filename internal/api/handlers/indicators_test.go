package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
)

type fakeComputer struct {
	runs int
	err  error
}

func (f *fakeComputer) ComputeRatios(context.Context, contracts.Period) (map[contracts.Category]contracts.Ratio, error) {
	return nil, nil
}

func (f *fakeComputer) Run(_ context.Context, p contracts.Period) (*indicators.BatchReport, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return &indicators.BatchReport{RunID: "run-1", Period: p}, nil
}

type fakeThrottle struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeThrottle) Allow(_ context.Context, key string) (bool, int, error) {
	f.keys = append(f.keys, key)
	return f.allow, 0, f.err
}

func (f *fakeThrottle) Window() time.Duration { return 90 * time.Second }

type countingFailures struct{ n int }

func (c *countingFailures) BatchFailed() { c.n++ }

func calculate(h *IndicatorHandler, line, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/lineas/"+line+"/indicadores/calcular", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"linea": line})
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)
	return rec
}

func TestCalculate_Throttle(t *testing.T) {
	tests := []struct {
		name       string
		throttle   *fakeThrottle
		wantStatus int
		wantRuns   int
	}{
		{"no throttle", nil, http.StatusOK, 1},
		{"allowed", &fakeThrottle{allow: true}, http.StatusOK, 1},
		{"denied", &fakeThrottle{allow: false}, http.StatusTooManyRequests, 0},
		{"throttle down", &fakeThrottle{err: errors.New("redis down")}, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeComputer{}
			h := NewIndicatorHandler(nil, engine, nil, nil, nil)
			if tt.throttle != nil {
				h.WithThrottle(tt.throttle)
			}

			rec := calculate(h, "7", `{"anio":2024,"mes":3}`)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantRuns, engine.runs)

			if tt.throttle != nil {
				assert.Equal(t, []string{"calcular:7:2024-03"}, tt.throttle.keys)
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "90", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestCalculate_BadInput(t *testing.T) {
	tests := []struct {
		name string
		line string
		body string
	}{
		{"line not numeric", "abc", `{"anio":2024,"mes":3}`},
		{"malformed body", "7", `{"anio":`},
		{"month out of range", "7", `{"anio":2024,"mes":13}`},
		{"line not positive", "0", `{"anio":2024,"mes":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeComputer{}
			throttle := &fakeThrottle{allow: true}
			h := NewIndicatorHandler(nil, engine, nil, nil, nil).WithThrottle(throttle)

			rec := calculate(h, tt.line, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, engine.runs)
			assert.Empty(t, throttle.keys)
		})
	}
}

func TestCalculate_EngineFailure(t *testing.T) {
	engine := &fakeComputer{err: errors.New("accessor unavailable")}
	failures := &countingFailures{}
	h := NewIndicatorHandler(nil, engine, nil, failures, nil)

	rec := calculate(h, "7", `{"anio":2024,"mes":3}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, failures.n)
}
