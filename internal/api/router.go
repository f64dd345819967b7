package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/transmaint/backend/internal/api/handlers"
	"github.com/transmaint/backend/internal/metrics"
	"github.com/transmaint/backend/pkg/logger"
)

// Deps are the collaborators the router wires. Metrics, Realtime and Limiter may be nil.
type Deps struct {
	Indicators *handlers.IndicatorHandler
	Dashboard  *handlers.DashboardHandler
	Realtime   http.Handler
	Metrics    *metrics.Recorder

	// per-client limit on /api; the owner calls Limiter.Stop on shutdown
	Limiter *RateLimiter
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: rutas definidas solo en esta función
func NewRouter(deps Deps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}
	if deps.Realtime != nil {
		r.Handle("/ws/indicadores", deps.Realtime).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware)
	}

	// Indicators
	api.HandleFunc("/indicadores", deps.Indicators.ListIndicators).Methods("GET")
	api.HandleFunc("/indicadores/{id:[0-9]+}/historial", deps.Indicators.GetHistory).Methods("GET")
	api.HandleFunc("/lineas/{linea}/indicadores", deps.Indicators.GetRatios).Methods("GET")
	api.HandleFunc("/lineas/{linea}/indice", deps.Indicators.GetIndex).Methods("GET")
	api.HandleFunc("/lineas/{linea}/mediciones", deps.Indicators.GetMeasurements).Methods("GET")
	api.HandleFunc("/lineas/{linea}/indicadores/calcular", deps.Indicators.Calculate).Methods("POST")

	// Dashboard
	api.HandleFunc("/dashboard", deps.Dashboard.GetDashboard).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "transmaint-api",
	})
}
