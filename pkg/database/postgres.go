package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transmaint/backend/pkg/config"
)

const (
	applicationName = "transmaint"
	connectTimeout  = 5 * time.Second
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories depend on it so they can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB owns the PostgreSQL pool
// ⭐ SSOT: la conexión a la BD se crea solo en este paquete
type DB struct {
	Pool *pgxpool.Pool
}

// poolConfig turns DatabaseConfig into pgx settings. The session time zone
// (DB_TIMEZONE, UTC by default) decides which calendar day a timestamp falls on.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime

	params := pc.ConnConfig.RuntimeParams
	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	params["timezone"] = tz
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	return pc, nil
}

// New opens the pool and pings it once
func New(cfg *config.Config) (*DB, error) {
	pc, err := poolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the pool; calling it twice is harmless
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// ReadOnly runs fn in a read-only transaction that is always rolled back
func (db *DB) ReadOnly(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read-only tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	return fn(tx)
}

// HealthStatus is the outcome of HealthCheck
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	ServerTime   time.Time     `json:"server_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

// PoolStats is a snapshot of pgxpool.Stat
type PoolStats struct {
	AcquireCount    int64         `json:"acquire_count"`
	AcquireDuration time.Duration `json:"acquire_duration"`
	AcquiredConns   int32         `json:"acquired_conns"`
	IdleConns       int32         `json:"idle_conns"`
	MaxConns        int32         `json:"max_conns"`
	TotalConns      int32         `json:"total_conns"`
}

// HealthCheck round-trips a query and reports pool usage
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.QueryRow(ctx, `SELECT now()`).Scan(&status.ServerTime); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("health check: %w", err)
	}
	status.ResponseTime = time.Since(start)
	status.Healthy = true

	st := db.Pool.Stat()
	status.Stats = PoolStats{
		AcquireCount:    st.AcquireCount(),
		AcquireDuration: st.AcquireDuration(),
		AcquiredConns:   st.AcquiredConns(),
		IdleConns:       st.IdleConns(),
		MaxConns:        st.MaxConns(),
		TotalConns:      st.TotalConns(),
	}
	return status, nil
}
