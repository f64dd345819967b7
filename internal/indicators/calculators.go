package indicators

import (
	"context"
	"fmt"

	"github.com/transmaint/backend/internal/contracts"
)

// Calculator computes one category's ratio for a period
type Calculator func(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error)

// defaultCalculators is the category → calculator table.
// ⭐ SSOT: una categoría sin entrada aquí se omite en el batch
var defaultCalculators = map[contracts.Category]Calculator{
	contracts.CategoryGestion:    GestionMantenimiento,
	contracts.CategoryEjecucion:  EjecucionMantenimiento,
	contracts.CategoryAmbiental:  GestionAmbiental,
	contracts.CategoryCalidad:    CalidadInformacion,
	contracts.CategorySeguridad:  SeguridadIndustrial,
	contracts.CategoryCronograma: CumplimientoCronograma,
}

// CalculatorFor looks up the calculator of a category
func CalculatorFor(c contracts.Category) (Calculator, bool) {
	calc, ok := defaultCalculators[c]
	return calc, ok
}

// GestionMantenimiento: completed activities / all activities of the period
func GestionMantenimiento(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	return activityRatio(ctx, acc, p,
		contracts.ActivityFilter{State: contracts.ActivityCompleted},
		contracts.ActivityFilter{},
	)
}

// EjecucionMantenimiento: completed activities finished on their scheduled date /
// completed activities with a field record
func EjecucionMantenimiento(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	return activityRatio(ctx, acc, p,
		contracts.ActivityFilter{State: contracts.ActivityCompleted, WithFieldRecord: true, FinishedOnSchedule: true},
		contracts.ActivityFilter{State: contracts.ActivityCompleted, WithFieldRecord: true},
	)
}

// GestionAmbiental: field records reporting environmental compliance / all field records
func GestionAmbiental(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	return fieldRecordRatio(ctx, acc, p,
		contracts.FieldRecordFilter{EnvironmentalCompliance: true},
		contracts.FieldRecordFilter{},
	)
}

// CalidadInformacion: field records with complete evidence and form data / all field records
func CalidadInformacion(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	return fieldRecordRatio(ctx, acc, p,
		contracts.FieldRecordFilter{CompleteEvidence: true, WithFormData: true},
		contracts.FieldRecordFilter{},
	)
}

// CumplimientoCronograma: field records started on the scheduled date / all field records
func CumplimientoCronograma(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	return fieldRecordRatio(ctx, acc, p,
		contracts.FieldRecordFilter{StartedOnSchedule: true},
		contracts.FieldRecordFilter{},
	)
}

// SeguridadIndustrial: weekdays without accidents / weekdays of the month.
// A period without field records has no data and yields (0, 0, 0).
func SeguridadIndustrial(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period) (contracts.Ratio, error) {
	if err := p.Validate(); err != nil {
		return contracts.Ratio{}, err
	}

	records, err := acc.CountFieldRecords(ctx, p, contracts.FieldRecordFilter{})
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count field records: %w", err)
	}
	if records == 0 {
		return contracts.NewRatio(0, 0), nil
	}

	weekdays, err := acc.CountWeekdays(ctx, p)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count weekdays: %w", err)
	}

	accidents, err := acc.CountAccidentDays(ctx, p)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count accident days: %w", err)
	}

	return contracts.NewRatio(weekdays-accidents, weekdays), nil
}

func activityRatio(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period, num, den contracts.ActivityFilter) (contracts.Ratio, error) {
	if err := p.Validate(); err != nil {
		return contracts.Ratio{}, err
	}

	total, err := acc.CountActivities(ctx, p, den)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count activities: %w", err)
	}
	if total == 0 {
		return contracts.NewRatio(0, 0), nil
	}

	matched, err := acc.CountActivities(ctx, p, num)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count activities: %w", err)
	}

	return contracts.NewRatio(matched, total), nil
}

func fieldRecordRatio(ctx context.Context, acc contracts.PeriodDataAccessor, p contracts.Period, num, den contracts.FieldRecordFilter) (contracts.Ratio, error) {
	if err := p.Validate(); err != nil {
		return contracts.Ratio{}, err
	}

	total, err := acc.CountFieldRecords(ctx, p, den)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count field records: %w", err)
	}
	if total == 0 {
		return contracts.NewRatio(0, 0), nil
	}

	matched, err := acc.CountFieldRecords(ctx, p, num)
	if err != nil {
		return contracts.Ratio{}, fmt.Errorf("count field records: %w", err)
	}

	return contracts.NewRatio(matched, total), nil
}
