// Package jobs holds the scheduled jobs of the KPI backend
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/pkg/logger"
)

// Recomputer runs the indicator batch for every active line; *indicators.Engine
type Recomputer interface {
	RunAllLines(ctx context.Context, lines contracts.LineRepository, year, month int) ([]*indicators.BatchReport, error)
}

// FailureRecorder counts failed batches; *metrics.Recorder
type FailureRecorder interface {
	BatchFailed()
}

// PreviousMonthGraceDays: during the first days of a month the previous month is
// recomputed too, so late field records still count
const PreviousMonthGraceDays = 5

// IndicatorRecomputeJob recomputes the measurements of the current month
// ⭐ SSOT: recálculo programado de indicadores solo en este Job
type IndicatorRecomputeJob struct {
	engine   Recomputer
	lines    contracts.LineRepository
	failures FailureRecorder
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

// NewIndicatorRecomputeJob creates the recompute job. failures may be nil.
func NewIndicatorRecomputeJob(engine Recomputer, lines contracts.LineRepository, failures FailureRecorder, schedule string, log *logger.Logger) *IndicatorRecomputeJob {
	if log == nil {
		log = logger.Nop()
	}
	return &IndicatorRecomputeJob{
		engine:   engine,
		lines:    lines,
		failures: failures,
		schedule: schedule,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *IndicatorRecomputeJob) Name() string {
	return "indicator_recompute"
}

// Schedule returns the cron schedule
func (j *IndicatorRecomputeJob) Schedule() string {
	return j.schedule
}

// Run recomputes every active line for the target months. A failing month does
// not stop the following ones; the errors are joined.
func (j *IndicatorRecomputeJob) Run(ctx context.Context) error {
	var errs []error
	for _, ym := range targetMonths(j.now(), PreviousMonthGraceDays) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		log := j.logger.WithFields(map[string]interface{}{"anio": ym[0], "mes": ym[1]})
		log.Info("Recomputing indicators")

		reports, err := j.engine.RunAllLines(ctx, j.lines, ym[0], ym[1])
		if err != nil {
			if j.failures != nil {
				j.failures.BatchFailed()
			}
			log.WithError(err).WithField("lines", len(reports)).Warn("Recompute finished with errors")
			errs = append(errs, fmt.Errorf("recompute %04d-%02d: %w", ym[0], ym[1], err))
			continue
		}

		log.WithField("lines", len(reports)).Info("Indicators recomputed")
	}
	return errors.Join(errs...)
}

// targetMonths returns the month of now, preceded by the previous month when now
// falls within the first graceDays days
func targetMonths(now time.Time, graceDays int) [][2]int {
	current := [2]int{now.Year(), int(now.Month())}
	if now.Day() > graceDays {
		return [][2]int{current}
	}
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return [][2]int{{prev.Year(), int(prev.Month())}, current}
}
