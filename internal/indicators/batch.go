package indicators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/transmaint/backend/internal/contracts"
)

// ErrUnmappedCategory marks an indicator whose category has no calculator
var ErrUnmappedCategory = errors.New("no calculator for indicator category")

// IndicatorResult is one persisted measurement of a batch
type IndicatorResult struct {
	Indicator   contracts.Indicator   `json:"indicador"`
	Ratio       contracts.Ratio       `json:"ratio"`
	Measurement contracts.Measurement `json:"medicion"`
}

// SkippedIndicator is an indicator the batch could not compute
type SkippedIndicator struct {
	Indicator contracts.Indicator `json:"indicador"`
	Reason    string              `json:"motivo"`
	Err       error               `json:"-"`
}

// BatchReport summarizes one batch run
type BatchReport struct {
	RunID     string             `json:"run_id"`
	Period    contracts.Period   `json:"periodo"`
	Results   []IndicatorResult  `json:"resultados"`
	Skipped   []SkippedIndicator `json:"omitidos"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration_ns"`
}

// Run computes and upserts every active indicator of a period.
// Unmapped categories are skipped; accessor and store failures abort the batch.
func (e *Engine) Run(ctx context.Context, p contracts.Period) (*BatchReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	log := e.logger.WithPeriod(p.LineID, p.Year, p.Month)
	start := e.now()

	active, err := e.indicators.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active indicators: %w", err)
	}

	report := &BatchReport{
		RunID:     uuid.NewString(),
		Period:    p,
		Results:   make([]IndicatorResult, 0, len(active)),
		Skipped:   []SkippedIndicator{},
		StartedAt: start,
	}

	// una categoría se calcula una sola vez por batch
	computed := make(map[contracts.Category]contracts.Ratio)

	for _, ind := range active {
		calc, ok := e.calculators[ind.Category]
		if !ok {
			skipErr := fmt.Errorf("%w: %q", ErrUnmappedCategory, ind.Category)
			log.WithFields(map[string]interface{}{
				"indicador": ind.Code,
				"categoria": string(ind.Category),
			}).Warn("Indicator skipped: unmapped category")
			report.Skipped = append(report.Skipped, SkippedIndicator{
				Indicator: ind,
				Reason:    skipErr.Error(),
				Err:       skipErr,
			})
			continue
		}

		ratio, done := computed[ind.Category]
		if !done {
			ratio, err = calc(ctx, e.accessor, p)
			if err != nil {
				return nil, fmt.Errorf("compute %s for %s: %w", ind.Code, p, err)
			}
			computed[ind.Category] = ratio
		}

		meetsGoal, inAlert := ind.Evaluate(ratio.Percentage)
		m := contracts.Measurement{
			IndicatorID: ind.ID,
			LineID:      p.LineID,
			Year:        p.Year,
			Month:       p.Month,
			Value:       ratio.Percentage,
			MeetsGoal:   meetsGoal,
			InAlert:     inAlert,
		}
		if err := e.store.Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("upsert measurement %s for %s: %w", ind.Code, p, err)
		}

		report.Results = append(report.Results, IndicatorResult{
			Indicator:   ind,
			Ratio:       ratio,
			Measurement: m,
		})
	}

	report.Duration = e.now().Sub(start)

	for _, o := range e.observers {
		o.OnBatch(ctx, report)
	}

	log.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"computed": len(report.Results),
		"skipped":  len(report.Skipped),
		"duration": report.Duration.String(),
	}).Info("Indicator batch completed")

	return report, nil
}

// RunAllLines runs the batch for every active line. A failing line does not stop
// the others; their errors are joined.
func (e *Engine) RunAllLines(ctx context.Context, lines contracts.LineRepository, year, month int) ([]*BatchReport, error) {
	if err := contracts.ValidateMonth(year, month); err != nil {
		return nil, err
	}

	ids, err := lines.ListActiveLineIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active lines: %w", err)
	}

	reports := make([]*BatchReport, 0, len(ids))
	var errs []error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := e.Run(ctx, contracts.Period{LineID: id, Year: year, Month: month})
		if err != nil {
			e.logger.WithPeriod(id, year, month).WithError(err).Error("Indicator batch failed")
			errs = append(errs, fmt.Errorf("linea %d: %w", id, err))
			continue
		}
		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}
