// Package fielddata answers the period-scoped counting questions of the indicator
// calculators from the maintenance schema (actividades, registros de campo, líneas).
package fielddata

import (
	"context"
	"fmt"
	"strings"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/pkg/database"
)

// Accessor implements contracts.PeriodDataAccessor and contracts.LineRepository
// over PostgreSQL
// ⭐ SSOT: consultas de actividades y registros de campo para indicadores
type Accessor struct {
	db database.Querier
}

// NewAccessor creates a new accessor. q is a pool or a transaction.
func NewAccessor(q database.Querier) *Accessor {
	return &Accessor{db: q}
}

// query collects WHERE conditions and their positional arguments
type query struct {
	base  string
	conds []string
	args  []interface{}
}

func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(cond string) {
	q.conds = append(q.conds, cond)
}

func (q *query) sql() string {
	if len(q.conds) == 0 {
		return q.base
	}
	return q.base + "\nWHERE " + strings.Join(q.conds, "\n  AND ")
}

// periodScope restricts activities (alias a) to the line and scheduled month
func (q *query) periodScope(p contracts.Period) {
	q.where("a.linea_id = " + q.arg(p.LineID))
	q.where("a.fecha_programada >= " + q.arg(p.Start()))
	q.where("a.fecha_programada < " + q.arg(p.End()))
}

func activityQuery(p contracts.Period, f contracts.ActivityFilter) *query {
	q := &query{base: "SELECT COUNT(*) FROM actividades_actividad a"}
	q.periodScope(p)

	if f.State != "" {
		q.where("a.estado = " + q.arg(string(f.State)))
	}
	switch {
	case f.FinishedOnSchedule:
		q.where(`EXISTS (
    SELECT 1 FROM campo_registrocampo r
    WHERE r.actividad_id = a.id AND r.fecha_fin IS NOT NULL AND r.fecha_fin::date = a.fecha_programada::date)`)
	case f.WithFieldRecord:
		q.where("EXISTS (SELECT 1 FROM campo_registrocampo r WHERE r.actividad_id = a.id)")
	}
	return q
}

func fieldRecordQuery(p contracts.Period, f contracts.FieldRecordFilter) *query {
	q := &query{base: `SELECT COUNT(*) FROM campo_registrocampo r
JOIN actividades_actividad a ON a.id = r.actividad_id`}
	q.periodScope(p)

	if f.CompleteEvidence {
		q.where("r.evidencias_completas = TRUE")
	}
	if f.WithFormData {
		// null, listas y escalares cuentan como formulario vacío
		q.where("jsonb_typeof(r.datos_formulario) = 'object' AND r.datos_formulario <> '{}'::jsonb")
	}
	if f.StartedOnSchedule {
		q.where("r.fecha_inicio::date = a.fecha_programada::date")
	}
	if f.EnvironmentalCompliance {
		q.where("r.datos_formulario -> 'cumplimiento_ambiental' = 'true'::jsonb")
	}
	return q
}

func accidentDaysQuery(p contracts.Period) *query {
	q := &query{base: `SELECT COUNT(DISTINCT r.fecha_inicio::date) FROM campo_registrocampo r
JOIN actividades_actividad a ON a.id = r.actividad_id`}
	q.where("a.linea_id = " + q.arg(p.LineID))
	q.where("r.fecha_inicio >= " + q.arg(p.Start()))
	q.where("r.fecha_inicio < " + q.arg(p.End()))
	// lunes..viernes
	q.where("EXTRACT(ISODOW FROM r.fecha_inicio) < 6")
	q.where("r.datos_formulario -> 'accidente_reportado' = 'true'::jsonb")
	return q
}

func (a *Accessor) count(ctx context.Context, q *query) (int64, error) {
	var n int64
	if err := a.db.QueryRow(ctx, q.sql(), q.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountActivities counts activities of the period matching f
func (a *Accessor) CountActivities(ctx context.Context, p contracts.Period, f contracts.ActivityFilter) (int64, error) {
	n, err := a.count(ctx, activityQuery(p, f))
	if err != nil {
		return 0, fmt.Errorf("count activities %s: %w", p, err)
	}
	return n, nil
}

// CountFieldRecords counts field records whose activity belongs to the period
func (a *Accessor) CountFieldRecords(ctx context.Context, p contracts.Period, f contracts.FieldRecordFilter) (int64, error) {
	n, err := a.count(ctx, fieldRecordQuery(p, f))
	if err != nil {
		return 0, fmt.Errorf("count field records %s: %w", p, err)
	}
	return n, nil
}

// CountWeekdays is calendar arithmetic; no query needed
func (a *Accessor) CountWeekdays(_ context.Context, p contracts.Period) (int64, error) {
	return int64(contracts.WeekdaysInMonth(p.Year, p.Month)), nil
}

// CountAccidentDays counts distinct weekdays with an accident-flagged record
func (a *Accessor) CountAccidentDays(ctx context.Context, p contracts.Period) (int64, error) {
	n, err := a.count(ctx, accidentDaysQuery(p))
	if err != nil {
		return 0, fmt.Errorf("count accident days %s: %w", p, err)
	}
	return n, nil
}

// ListActiveLineIDs returns active transmission lines ordered by id
func (a *Accessor) ListActiveLineIDs(ctx context.Context) ([]int64, error) {
	rows, err := a.db.Query(ctx, `SELECT id FROM lineas_linea WHERE activa = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active lines: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
