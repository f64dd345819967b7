package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/pkg/database"
)

// Repository implements Store over PostgreSQL
type Repository struct {
	db database.Querier
}

// NewRepository creates a dashboard repository
func NewRepository(q database.Querier) *Repository {
	return &Repository{db: q}
}

// MeasurementSummary aggregates indicadores_medicionindicador for a month
func (r *Repository) MeasurementSummary(ctx context.Context, year, month int) (MeasurementSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(ROUND(AVG(valor_calculado), 2), 0)::text,
			COUNT(*) FILTER (WHERE en_alerta),
			COUNT(*) FILTER (WHERE cumple_meta)
		FROM indicadores_medicionindicador
		WHERE anio = $1 AND mes = $2
	`

	var (
		s   MeasurementSummary
		avg string
	)
	if err := r.db.QueryRow(ctx, query, year, month).Scan(&s.Count, &avg, &s.InAlert, &s.MeetsGoal); err != nil {
		return MeasurementSummary{}, err
	}

	var err error
	if s.Average, err = decimal.NewFromString(avg); err != nil {
		return MeasurementSummary{}, fmt.Errorf("average: %w", err)
	}
	return s, nil
}

// IndicatorPoints lists (indicator name, value, goal) of a month
func (r *Repository) IndicatorPoints(ctx context.Context, year, month int) ([]IndicatorPoint, error) {
	query := `
		SELECT i.nombre, m.valor_calculado::text, i.meta::text
		FROM indicadores_medicionindicador m
		JOIN indicadores_indicador i ON i.id = m.indicador_id
		WHERE m.anio = $1 AND m.mes = $2
		ORDER BY i.codigo, m.linea_id
	`

	rows, err := r.db.Query(ctx, query, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []IndicatorPoint
	for rows.Next() {
		var (
			p           IndicatorPoint
			value, goal string
		)
		if err := rows.Scan(&p.Name, &value, &goal); err != nil {
			return nil, err
		}
		if p.Value, err = decimal.NewFromString(value); err != nil {
			return nil, err
		}
		if p.Goal, err = decimal.NewFromString(goal); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ActivityCounts counts programmed and completed activities of a month
func (r *Repository) ActivityCounts(ctx context.Context, year, month int) (ActivityCounts, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE estado = 'COMPLETADA')
		FROM actividades_actividad
		WHERE EXTRACT(YEAR FROM fecha_programada) = $1
		  AND EXTRACT(MONTH FROM fecha_programada) = $2
	`

	var c ActivityCounts
	err := r.db.QueryRow(ctx, query, year, month).Scan(&c.Programmed, &c.Completed)
	return c, err
}

// CrewCounts returns activity counts for the first limit active crews by code
func (r *Repository) CrewCounts(ctx context.Context, year, month, limit int) ([]CrewCounts, error) {
	query := `
		SELECT c.codigo,
			COUNT(a.id),
			COUNT(a.id) FILTER (WHERE a.estado = 'COMPLETADA')
		FROM (
			SELECT id, codigo FROM cuadrillas_cuadrilla
			WHERE activa = TRUE
			ORDER BY codigo
			LIMIT $3
		) c
		LEFT JOIN actividades_actividad a
			ON a.cuadrilla_id = c.id
			AND EXTRACT(YEAR FROM a.fecha_programada) = $1
			AND EXTRACT(MONTH FROM a.fecha_programada) = $2
		GROUP BY c.codigo
		ORDER BY c.codigo
	`

	rows, err := r.db.Query(ctx, query, year, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crews []CrewCounts
	for rows.Next() {
		var c CrewCounts
		if err := rows.Scan(&c.Code, &c.Programmed, &c.Completed); err != nil {
			return nil, err
		}
		crews = append(crews, c)
	}
	return crews, rows.Err()
}

// PriorityCounts counts activities of a month by prioridad
func (r *Repository) PriorityCounts(ctx context.Context, year, month int) (map[string]int64, error) {
	query := `
		SELECT prioridad, COUNT(*)
		FROM actividades_actividad
		WHERE EXTRACT(YEAR FROM fecha_programada) = $1
		  AND EXTRACT(MONTH FROM fecha_programada) = $2
		GROUP BY prioridad
	`

	rows, err := r.db.Query(ctx, query, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			priority string
			n        int64
		)
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, err
		}
		counts[priority] = n
	}
	return counts, rows.Err()
}

// TypeCounts counts the month's activities for the first limit active activity types by code
func (r *Repository) TypeCounts(ctx context.Context, year, month, limit int) ([]TypeCount, error) {
	query := `
		SELECT t.nombre, COUNT(a.id)
		FROM (
			SELECT id, codigo, nombre FROM actividades_tipoactividad
			WHERE activo = TRUE
			ORDER BY codigo
			LIMIT $3
		) t
		LEFT JOIN actividades_actividad a
			ON a.tipo_actividad_id = t.id
			AND EXTRACT(YEAR FROM a.fecha_programada) = $1
			AND EXTRACT(MONTH FROM a.fecha_programada) = $2
		GROUP BY t.codigo, t.nombre
		ORDER BY t.codigo
	`

	rows, err := r.db.Query(ctx, query, year, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// RecentActivities lists the limit most recently updated activities, any month
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]RecentActivity, error) {
	query := `
		SELECT a.id, a.linea_id, a.torre_id, COALESCE(t.nombre, ''), a.estado, a.prioridad,
			a.fecha_programada::timestamp, a.updated_at
		FROM actividades_actividad a
		LEFT JOIN actividades_tipoactividad t ON t.id = a.tipo_actividad_id
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentActivity
	for rows.Next() {
		var a RecentActivity
		if err := rows.Scan(&a.ID, &a.LineID, &a.TowerID, &a.Type, &a.State, &a.Priority, &a.Scheduled, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
