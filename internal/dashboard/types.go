package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// MeasurementSummary aggregates the measurements of one month across lines
type MeasurementSummary struct {
	Count     int64           `json:"mediciones"`
	Average   decimal.Decimal `json:"promedio_cumplimiento"`
	InAlert   int64           `json:"en_alerta"`
	MeetsGoal int64           `json:"cumplen_meta"`
}

// ActivityCounts is programmed vs completed activities
type ActivityCounts struct {
	Programmed int64 `json:"actividades_programadas"`
	Completed  int64 `json:"actividades_completadas"`
}

// CrewCounts is the activity count of one crew
type CrewCounts struct {
	Code string `json:"codigo"`
	ActivityCounts
}

// IndicatorPoint is one measurement next to its goal
type IndicatorPoint struct {
	Name  string          `json:"nombre"`
	Value decimal.Decimal `json:"valor"`
	Goal  decimal.Decimal `json:"meta"`
}

// CrewCompliance is the completion percentage of one crew (1 decimal)
type CrewCompliance struct {
	Code       string          `json:"codigo"`
	Compliance decimal.Decimal `json:"cumplimiento"`
}

// TrendPoint is planned vs executed activities of one month
type TrendPoint struct {
	Label    string `json:"mes"`
	Year     int    `json:"anio"`
	Month    int    `json:"numero_mes"`
	Planned  int64  `json:"planeado"`
	Executed int64  `json:"ejecutado"`
}

// TypeCount is the number of activities of one activity type
type TypeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"value"`
}

// RecentActivity is one of the most recently updated activities
type RecentActivity struct {
	ID        int64     `json:"id"`
	LineID    int64     `json:"linea_id"`
	TowerID   *int64    `json:"torre_id,omitempty"`
	Type      string    `json:"tipo_actividad"`
	State     string    `json:"estado"`
	Priority  string    `json:"prioridad"`
	Scheduled time.Time `json:"fecha_programada"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the KPI dashboard of one month
type Summary struct {
	Year         int                `json:"anio"`
	Month        int                `json:"mes"`
	Measurements MeasurementSummary `json:"resumen"`
	Activities   ActivityCounts     `json:"actividades"`
	Compliance   decimal.Decimal    `json:"cumplimiento"`
	Crews        []CrewCompliance   `json:"cuadrillas"`
	Trend        []TrendPoint       `json:"tendencia"`
	Priorities   map[string]int64   `json:"prioridad"`
	Indicators   []IndicatorPoint   `json:"indicadores"`
	Types        []TypeCount        `json:"tipo_data"`
	Recent       []RecentActivity   `json:"actividades_recientes"`
}
