package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/pkg/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.ReadOnly(ctx, func(q Querier) error {
		var one int
		require.NoError(t, q.QueryRow(ctx, "SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)

		_, execErr := q.Exec(ctx, "CREATE TEMP TABLE ro_probe (id int)")
		return execErr
	})
	assert.Error(t, err)
}

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		URL:             "postgres://u:p@localhost:5432/kpi",
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, "UTC", pc.ConnConfig.RuntimeParams["timezone"])
	assert.Equal(t, "transmaint", pc.ConnConfig.RuntimeParams["application_name"])

	pc, err = poolConfig(config.DatabaseConfig{
		URL:      "postgres://u:p@localhost:5432/kpi?application_name=report",
		TimeZone: "America/Bogota",
	})
	require.NoError(t, err)
	assert.Equal(t, "report", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "America/Bogota", pc.ConnConfig.RuntimeParams["timezone"])
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCloseTwice(t *testing.T) {
	db := newTestDB(t)

	assert.NotPanics(t, func() {
		db.Close()
		db.Close()
	})
}
