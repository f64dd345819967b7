package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/pkg/logger"
	"github.com/transmaint/backend/pkg/redis"
)

// IndicatorCatalog reads indicator definitions and history; *indicators.Repository
type IndicatorCatalog interface {
	List(ctx context.Context) ([]contracts.Indicator, error)
	GetByID(ctx context.Context, id int64) (*contracts.Indicator, error)
	History(ctx context.Context, indicatorID int64) ([]contracts.Measurement, error)
	ListMeasurements(ctx context.Context, p contracts.Period) ([]contracts.Measurement, error)
}

// Computer computes ratios and runs batches; *indicators.Engine
type Computer interface {
	ComputeRatios(ctx context.Context, p contracts.Period) (map[contracts.Category]contracts.Ratio, error)
	Run(ctx context.Context, p contracts.Period) (*indicators.BatchReport, error)
}

// IndexReader returns the composite index; *indicators.CachedIndex or *indicators.Engine
type IndexReader interface {
	GlobalIndex(ctx context.Context, p contracts.Period) (*indicators.IndexResult, error)
}

// FailureRecorder counts failed batches; *metrics.Recorder
type FailureRecorder interface {
	BatchFailed()
}

// Throttle bounds recomputations per line and month; *redis.Throttle
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, int, error)
	Window() time.Duration
}

// IndicatorHandler handles indicator API endpoints
// ⭐ SSOT: endpoints de indicadores solo en este handler
type IndicatorHandler struct {
	catalog  IndicatorCatalog
	engine   Computer
	index    IndexReader
	failures FailureRecorder
	throttle Throttle
	logger   *logger.Logger
	now      func() time.Time
}

// NewIndicatorHandler creates a new indicator handler. failures may be nil.
func NewIndicatorHandler(catalog IndicatorCatalog, engine Computer, index IndexReader, failures FailureRecorder, log *logger.Logger) *IndicatorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &IndicatorHandler{
		catalog:  catalog,
		engine:   engine,
		index:    index,
		failures: failures,
		logger:   log,
		now:      time.Now,
	}
}

// WithThrottle limits POST .../calcular through t
func (h *IndicatorHandler) WithThrottle(t Throttle) *IndicatorHandler {
	h.throttle = t
	return h
}

// ListIndicators returns every indicator definition
// GET /api/indicadores
func (h *IndicatorHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list indicators")
		return
	}
	if list == nil {
		list = []contracts.Indicator{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"indicadores": list,
		"count":       len(list),
	})
}

// GetHistory returns an indicator and its latest measurements
// GET /api/indicadores/{id}/historial
func (h *IndicatorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ind, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get indicator")
		return
	}

	history, err := h.catalog.History(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get indicator history")
		return
	}
	if history == nil {
		history = []contracts.Measurement{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"indicador": ind,
		"historial": history,
	})
}

// GetMeasurements returns the stored measurements of a line and month
// GET /api/lineas/{linea}/mediciones?anio=&mes=
func (h *IndicatorHandler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	p, err := periodFromRequest(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.catalog.ListMeasurements(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger.WithPeriod(p.LineID, p.Year, p.Month), err, "Failed to list measurements")
		return
	}
	if list == nil {
		list = []contracts.Measurement{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"periodo":    p,
		"mediciones": list,
		"count":      len(list),
	})
}

// GetRatios computes the six category ratios without persisting
// GET /api/lineas/{linea}/indicadores?anio=&mes=
func (h *IndicatorHandler) GetRatios(w http.ResponseWriter, r *http.Request) {
	p, err := periodFromRequest(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ratios, err := h.engine.ComputeRatios(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger.WithPeriod(p.LineID, p.Year, p.Month), err, "Failed to compute indicators")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"periodo":    p,
		"categorias": ratios,
	})
}

// GetIndex returns the weighted global index with its breakdown
// GET /api/lineas/{linea}/indice?anio=&mes=
func (h *IndicatorHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	p, err := periodFromRequest(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.index.GlobalIndex(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger.WithPeriod(p.LineID, p.Year, p.Month), err, "Failed to compute index")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CalculateRequest is the body of the batch endpoint
type CalculateRequest struct {
	Year  int `json:"anio"`
	Month int `json:"mes"`
}

// Calculate runs the batch for a line and month and persists the measurements
// POST /api/lineas/{linea}/indicadores/calcular
func (h *IndicatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "linea")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	p, err := contracts.NewPeriod(lineID, req.Year, req.Month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.allowRecompute(w, r, p) {
		return
	}

	report, err := h.engine.Run(r.Context(), p)
	if err != nil {
		if h.failures != nil {
			h.failures.BatchFailed()
		}
		respondServiceError(w, h.logger.WithPeriod(p.LineID, p.Year, p.Month), err, "Failed to calculate indicators")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// allowRecompute answers 429 when the period was recomputed too often.
// A throttle failure lets the request through.
func (h *IndicatorHandler) allowRecompute(w http.ResponseWriter, r *http.Request, p contracts.Period) bool {
	if h.throttle == nil {
		return true
	}

	ok, _, err := h.throttle.Allow(r.Context(), redis.RecomputeKey(p.LineID, p.Year, p.Month))
	if err != nil {
		h.logger.WithPeriod(p.LineID, p.Year, p.Month).WithError(err).Warn("Recompute throttle unavailable")
		return true
	}
	if ok {
		return true
	}

	retry := int(math.Ceil(h.throttle.Window().Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	respondError(w, http.StatusTooManyRequests, "recalculation limit reached for this period")
	return false
}
