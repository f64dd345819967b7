package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/transmaint/backend/internal/dashboard"
	"github.com/transmaint/backend/pkg/logger"
)

// SummaryReader builds dashboard summaries; *dashboard.Service
type SummaryReader interface {
	Summary(ctx context.Context, year, month int) (*dashboard.Summary, error)
}

// DashboardHandler serves the KPI dashboard
type DashboardHandler struct {
	service SummaryReader
	logger  *logger.Logger
	now     func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service SummaryReader, log *logger.Logger) *DashboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardHandler{service: service, logger: log, now: time.Now}
}

// GetDashboard returns the dashboard of a month
// GET /api/dashboard?anio=&mes=
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryMonth(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Summary(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
