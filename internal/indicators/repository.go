package indicators

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/pkg/database"
)

// ErrIndicatorNotFound is returned by GetByID for an unknown id
var ErrIndicatorNotFound = errors.New("indicator not found")

// HistoryLimit is how many measurements History returns
const HistoryLimit = 12

// Repository implements contracts.IndicatorRepository and contracts.MeasurementStore
// over PostgreSQL
// ⭐ SSOT: tablas indicadores_* solo se tocan desde aquí
type Repository struct {
	db database.Querier
}

// NewRepository creates a new indicator repository. q is a pool or a transaction.
func NewRepository(q database.Querier) *Repository {
	return &Repository{db: q}
}

const indicatorColumns = `id, codigo, nombre, categoria, meta::text, umbral_alerta::text, activo`

func scanIndicator(row pgx.Row) (contracts.Indicator, error) {
	var (
		ind             contracts.Indicator
		cat             string
		goal, threshold string
	)
	if err := row.Scan(&ind.ID, &ind.Code, &ind.Name, &cat, &goal, &threshold, &ind.Active); err != nil {
		return contracts.Indicator{}, err
	}
	ind.Category = contracts.Category(cat)

	var err error
	if ind.Goal, err = decimal.NewFromString(goal); err != nil {
		return contracts.Indicator{}, fmt.Errorf("indicator %d meta: %w", ind.ID, err)
	}
	if ind.AlertThreshold, err = decimal.NewFromString(threshold); err != nil {
		return contracts.Indicator{}, fmt.Errorf("indicator %d umbral_alerta: %w", ind.ID, err)
	}
	return ind, nil
}

func (r *Repository) queryIndicators(ctx context.Context, query string, args ...interface{}) ([]contracts.Indicator, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	var out []contracts.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, rows.Err()
}

// ListActive returns active indicators ordered by code
func (r *Repository) ListActive(ctx context.Context) ([]contracts.Indicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM indicadores_indicador
		WHERE activo = TRUE
		ORDER BY codigo
	`
	return r.queryIndicators(ctx, query)
}

// List returns all indicators ordered by code
func (r *Repository) List(ctx context.Context) ([]contracts.Indicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM indicadores_indicador
		ORDER BY codigo
	`
	return r.queryIndicators(ctx, query)
}

// GetByID returns one indicator
func (r *Repository) GetByID(ctx context.Context, id int64) (*contracts.Indicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM indicadores_indicador
		WHERE id = $1
	`
	ind, err := scanIndicator(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrIndicatorNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// Upsert creates or updates the measurement of (indicator, line, year, month).
// Concurrent upserts of one key converge on the unique constraint.
func (r *Repository) Upsert(ctx context.Context, m contracts.Measurement) error {
	query := `
		INSERT INTO indicadores_medicionindicador
			(indicador_id, linea_id, anio, mes, valor_calculado, cumple_meta, en_alerta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, NOW(), NOW())
		ON CONFLICT (indicador_id, linea_id, anio, mes) DO UPDATE SET
			valor_calculado = EXCLUDED.valor_calculado,
			cumple_meta = EXCLUDED.cumple_meta,
			en_alerta = EXCLUDED.en_alerta,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		m.IndicatorID, m.LineID, m.Year, m.Month, m.Value.StringFixed(2), m.MeetsGoal, m.InAlert,
	)
	if err != nil {
		return fmt.Errorf("upsert measurement: %w", err)
	}
	return nil
}

func (r *Repository) queryMeasurements(ctx context.Context, query string, args ...interface{}) ([]contracts.Measurement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var out []contracts.Measurement
	for rows.Next() {
		var (
			m     contracts.Measurement
			value string
		)
		if err := rows.Scan(&m.IndicatorID, &m.LineID, &m.Year, &m.Month, &value, &m.MeetsGoal, &m.InAlert, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if m.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("measurement value: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const measurementColumns = `indicador_id, linea_id, anio, mes, valor_calculado::text, cumple_meta, en_alerta, updated_at`

// History returns the latest HistoryLimit measurements of an indicator, newest first
func (r *Repository) History(ctx context.Context, indicatorID int64) ([]contracts.Measurement, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM indicadores_medicionindicador
		WHERE indicador_id = $1
		ORDER BY anio DESC, mes DESC, linea_id
		LIMIT $2
	`
	return r.queryMeasurements(ctx, query, indicatorID, HistoryLimit)
}

// ListMeasurements returns the stored measurements of a period
func (r *Repository) ListMeasurements(ctx context.Context, p contracts.Period) ([]contracts.Measurement, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + measurementColumns + `
		FROM indicadores_medicionindicador
		WHERE linea_id = $1 AND anio = $2 AND mes = $3
		ORDER BY indicador_id
	`
	return r.queryMeasurements(ctx, query, p.LineID, p.Year, p.Month)
}
