package contracts

import "context"

// ActivityState is the lifecycle state of an Actividad
type ActivityState string

const (
	ActivityPending    ActivityState = "PENDIENTE"
	ActivityInProgress ActivityState = "EN_CURSO"
	ActivityCompleted  ActivityState = "COMPLETADA"
	ActivityCancelled  ActivityState = "CANCELADA"
)

// ActivityFilter narrows activity counts. Criteria are ANDed; the zero value counts
// every activity of the period.
type ActivityFilter struct {
	State ActivityState // empty = any state

	// WithFieldRecord keeps activities that have at least one registro de campo
	WithFieldRecord bool

	// FinishedOnSchedule keeps activities with a field record whose end date equals
	// the scheduled date. Implies WithFieldRecord.
	FinishedOnSchedule bool
}

// FieldRecordFilter narrows field-record counts. Criteria are ANDed; the zero value
// counts every field record of the period.
type FieldRecordFilter struct {
	CompleteEvidence        bool // evidencias_completas
	WithFormData            bool // datos_formulario present and non-empty
	StartedOnSchedule       bool // start date equals the activity's scheduled date
	EnvironmentalCompliance bool // datos_formulario.cumplimiento_ambiental = true
}

// PeriodDataAccessor answers the aggregate questions the calculators ask about a period
// ⭐ SSOT: única fuente de datos de los calculadores de indicadores
type PeriodDataAccessor interface {
	CountActivities(ctx context.Context, p Period, f ActivityFilter) (int64, error)
	CountFieldRecords(ctx context.Context, p Period, f FieldRecordFilter) (int64, error)
	CountWeekdays(ctx context.Context, p Period) (int64, error)
	// CountAccidentDays counts distinct weekdays of the period with at least one
	// accident-flagged field record
	CountAccidentDays(ctx context.Context, p Period) (int64, error)
}

// IndicatorRepository reads indicator definitions
type IndicatorRepository interface {
	ListActive(ctx context.Context) ([]Indicator, error)
}

// MeasurementStore persists measurements with upsert semantics keyed by
// (indicator, line, year, month)
type MeasurementStore interface {
	Upsert(ctx context.Context, m Measurement) error
}

// LineRepository lists the transmission lines the scheduler recomputes
type LineRepository interface {
	ListActiveLineIDs(ctx context.Context) ([]int64, error)
}
