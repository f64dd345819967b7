package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: todas las variables de entorno se leen solo aquí
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// KPI engine
	KPI KPIConfig

	// API
	API APIConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// zona horaria de la sesión; define el día calendario de fecha_inicio::date
	TimeZone string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// KPIConfig points at the indicator weight table and controls index caching
type KPIConfig struct {
	ConfigPath    string        // YAML con ponderaciones por categoría
	IndexCacheTTL time.Duration // TTL del índice global en Redis
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit int // requests per second per client, 0 disables limiting
	RateBurst int

	// recálculos por línea y mes dentro de RecomputeWindow, compartido vía Redis
	RecomputeLimit  int
	RecomputeWindow time.Duration
}

// SchedulerConfig controls the periodic recomputation job
type SchedulerConfig struct {
	RecomputeSchedule string // cron expression with seconds
	MaxRetries        int
	RetryDelay        time.Duration
}

// Load reads configuration from environment variables.
// Malformed numbers, booleans or durations are reported together with the
// validation errors instead of silently falling back to defaults.
// ⭐ SSOT: única función que llama os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	var env envReader
	cfg := &Config{
		Port: env.str("PORT", "8080"),
		Env:  env.str("ENV", "development"),

		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxConns:        env.integer("DB_MAX_CONNS", 25),
			MinConns:        env.integer("DB_MIN_CONNS", 5),
			MaxConnLifetime: env.duration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: env.duration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			TimeZone:        env.str("DB_TIMEZONE", "UTC"),
		},

		Redis: RedisConfig{
			Host:     env.str("REDIS_HOST", "localhost"),
			Port:     env.str("REDIS_PORT", "6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
			Enabled:  env.boolean("REDIS_ENABLED", false),
		},

		KPI: KPIConfig{
			ConfigPath:    env.str("KPI_CONFIG_PATH", "config/indicadores.yaml"),
			IndexCacheTTL: env.duration("INDEX_CACHE_TTL", 10*time.Minute),
		},

		API: APIConfig{
			RateLimit: env.integer("API_RATE_LIMIT", 20),
			RateBurst: env.integer("API_RATE_BURST", 40),

			RecomputeLimit:  env.integer("RECOMPUTE_LIMIT", 3),
			RecomputeWindow: env.duration("RECOMPUTE_WINDOW", time.Minute),
		},

		Scheduler: SchedulerConfig{
			// 02:00 todos los días
			RecomputeSchedule: env.str("RECOMPUTE_SCHEDULE", "0 0 2 * * *"),
			MaxRetries:        env.integer("JOB_MAX_RETRIES", 3),
			RetryDelay:        env.duration("JOB_RETRY_DELAY", time.Minute),
		},

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "json"),

		MetricsEnabled: env.boolean("METRICS_ENABLED", true),
	}

	if err := errors.Join(append(env.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate lists every invalid setting
func (c *Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Env == "development" || c.Env == "staging" || c.Env == "production",
		"ENV must be one of: development, staging, production")
	check(c.API.RateLimit >= 0 && c.API.RateBurst >= 0, "API_RATE_LIMIT and API_RATE_BURST must be >= 0")
	check(c.API.RecomputeLimit >= 0, "RECOMPUTE_LIMIT must be >= 0")
	check(c.API.RecomputeWindow > 0, "RECOMPUTE_WINDOW must be positive")
	check(c.KPI.IndexCacheTTL > 0, "INDEX_CACHE_TTL must be positive")
	check(c.Scheduler.MaxRetries >= 0, "JOB_MAX_RETRIES must be >= 0")
	check(c.Database.MinConns <= c.Database.MaxConns, "DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	if _, err := time.LoadLocation(c.Database.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("DB_TIMEZONE: %w", err))
	}

	return errs
}

// loadEnvFile loads the first .env found next to the working dir or the binary
func loadEnvFile() {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates, filepath.Join(dir, ".env"), filepath.Join(dir, "..", ".env"))
	}

	for _, candidate := range candidates {
		if err := godotenv.Load(candidate); err == nil {
			return
		}
	}
}

// envReader reads typed variables and remembers parse failures
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	return parseVar(r, key, def, strconv.Atoi)
}

func (r *envReader) boolean(key string, def bool) bool {
	return parseVar(r, key, def, strconv.ParseBool)
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	return parseVar(r, key, def, time.ParseDuration)
}

func parseVar[T any](r *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}
