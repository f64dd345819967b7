package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/transmaint/backend/internal/dashboard"
	"github.com/transmaint/backend/internal/fielddata"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/internal/kpiconfig"
	"github.com/transmaint/backend/internal/metrics"
	"github.com/transmaint/backend/internal/realtime"
	"github.com/transmaint/backend/pkg/config"
	"github.com/transmaint/backend/pkg/database"
	"github.com/transmaint/backend/pkg/logger"
	"github.com/transmaint/backend/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: el grafo de dependencias se construye solo aquí
type app struct {
	cfg *config.Config
	log *logger.Logger

	db    *database.DB
	redis *redis.Client

	accessor  *fielddata.Accessor
	repo      *indicators.Repository
	engine    *indicators.Engine
	index     *indicators.CachedIndex
	dashboard *dashboard.Service
	metrics   *metrics.Recorder // nil when METRICS_ENABLED=false
	hub       *realtime.Hub
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// loadWeights reads the category weight table
func loadWeights(path string, log *logger.Logger) (indicators.Weights, error) {
	kcfg, _, err := kpiconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	hash, err := kpiconfig.Hash(kcfg)
	if err != nil {
		return nil, fmt.Errorf("hash weights: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"path":    path,
		"version": kcfg.Version,
		"hash":    hash,
	}).Info("Loaded indicator weights")

	return indicators.Weights(kcfg.Table()), nil
}

func newApp() (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (no-op when REDIS_ENABLED=false)
	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Weights
	weights, err := loadWeights(cfg.KPI.ConfigPath, log)
	if err != nil {
		_ = rc.Close()
		db.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    rc,
		accessor: fielddata.NewAccessor(db.Pool),
		repo:     indicators.NewRepository(db.Pool),
		hub:      realtime.NewHub(log),
	}

	// 6. Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.New(reg)
	}

	// 7. Engine
	opts := []indicators.Option{indicators.WithObserver(a.hub)}
	if a.metrics != nil {
		opts = append(opts, indicators.WithObserver(a.metrics))
	}
	a.engine, err = indicators.NewEngine(a.accessor, a.repo, a.repo, weights, log, opts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	// 8. Caches
	cache := redis.NewCache(rc, "transmaint")
	a.index = indicators.NewCachedIndex(a.engine, cache, cfg.KPI.IndexCacheTTL, log)
	a.engine.AddObserver(a.index)
	a.dashboard = dashboard.NewService(dashboard.NewRepository(db.Pool), cache, redis.TTLShort, log)

	return a, nil
}

func (a *app) close() {
	a.hub.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}
