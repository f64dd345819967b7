package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transmaint/backend/internal/api"
	"github.com/transmaint/backend/internal/api/handlers"
	"github.com/transmaint/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Iniciar el servidor API",
	Long: `Inicia el servidor REST API de indicadores.

Este comando:
- Inicia el servidor HTTP
- Expone consulta y cálculo de indicadores
- Publica resultados de lotes por WebSocket
- Expone métricas Prometheus (METRICS_ENABLED)

Endpoints:
  GET  /health                                   - Health check
  GET  /metrics                                  - Métricas Prometheus
  GET  /ws/indicadores                           - Eventos de lotes (WebSocket)
  GET  /api/indicadores                          - Catálogo de indicadores
  GET  /api/indicadores/{id}/historial           - Últimas 12 mediciones
  GET  /api/lineas/{linea}/indicadores           - Ratios del periodo
  GET  /api/lineas/{linea}/indice                - Índice global ponderado
  POST /api/lineas/{linea}/indicadores/calcular  - Calcular y persistir
  GET  /api/dashboard                            - Resumen mensual

Example:
  go run ./cmd/transmaint api
  go run ./cmd/transmaint api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "puerto del servidor API (default PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "ejecutar también el scheduler en este proceso")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Transmaint API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// Handlers
	throttle := redis.NewThrottle(a.redis, "transmaint", a.cfg.API.RecomputeLimit, a.cfg.API.RecomputeWindow)
	indicatorHandler := handlers.NewIndicatorHandler(a.repo, a.engine, a.index, a.metrics, log).
		WithThrottle(throttle)
	dashboardHandler := handlers.NewDashboardHandler(a.dashboard, log)

	var limiter *api.RateLimiter
	if a.cfg.API.RateLimit > 0 {
		limiter = api.NewRateLimiter(a.cfg.API.RateLimit, a.cfg.API.RateBurst)
	}

	router := api.NewRouter(api.Deps{
		Indicators: indicatorHandler,
		Dashboard:  dashboardHandler,
		Realtime:   http.HandlerFunc(a.hub.ServeWS),
		Metrics:    a.metrics,
		Limiter:    limiter,
	}, log)

	server := api.New(a.cfg, log, router)
	if limiter != nil {
		server.OnShutdown(limiter.Stop)
	}

	if withScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("Scheduler started in-process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
