// Package inmem holds in-memory implementations of the contracts interfaces.
// They back unit tests and the `calcular --demo` command.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/transmaint/backend/internal/contracts"
)

// Activity mirrors the columns of actividades_actividad the engine reads
type Activity struct {
	ID        int64
	LineID    int64
	CrewID    int64
	Scheduled time.Time // fecha_programada
	State     contracts.ActivityState
	Priority  string
}

// FieldRecord mirrors campo_registrocampo
type FieldRecord struct {
	ID               int64
	ActivityID       int64
	Start            time.Time  // fecha_inicio
	End              *time.Time // fecha_fin, nil while in progress
	CompleteEvidence bool
	FormData         map[string]any
}

// Dataset is an in-memory PeriodDataAccessor, IndicatorRepository and LineRepository
type Dataset struct {
	mu         sync.RWMutex
	activities map[int64]Activity
	records    []FieldRecord
	indicators []contracts.Indicator
	lines      map[int64]bool
}

// NewDataset returns an empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		activities: make(map[int64]Activity),
		lines:      make(map[int64]bool),
	}
}

// AddLine registers a line; inactive lines are skipped by ListActiveLineIDs
func (d *Dataset) AddLine(id int64, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines[id] = active
}

// AddActivity stores an activity, replacing one with the same ID
func (d *Dataset) AddActivity(a Activity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.lines[a.LineID]; !ok {
		d.lines[a.LineID] = true
	}
	d.activities[a.ID] = a
}

// AddFieldRecord stores a field record
func (d *Dataset) AddFieldRecord(r FieldRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, r)
}

// AddIndicator stores an indicator definition
func (d *Dataset) AddIndicator(ind contracts.Indicator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.indicators = append(d.indicators, ind)
}

func inMonth(t time.Time, p contracts.Period) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func flag(data map[string]any, key string) bool {
	v, ok := data[key].(bool)
	return ok && v
}

func (d *Dataset) activityInPeriod(id int64, p contracts.Period) (Activity, bool) {
	a, ok := d.activities[id]
	if !ok || a.LineID != p.LineID || !inMonth(a.Scheduled, p) {
		return Activity{}, false
	}
	return a, true
}

// CountActivities implements contracts.PeriodDataAccessor
func (d *Dataset) CountActivities(_ context.Context, p contracts.Period, f contracts.ActivityFilter) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int64
	for _, a := range d.activities {
		if _, ok := d.activityInPeriod(a.ID, p); !ok {
			continue
		}
		if f.State != "" && a.State != f.State {
			continue
		}
		if f.WithFieldRecord || f.FinishedOnSchedule {
			hasRecord, onTime := false, false
			for _, r := range d.records {
				if r.ActivityID != a.ID {
					continue
				}
				hasRecord = true
				if r.End != nil && sameDate(*r.End, a.Scheduled) {
					onTime = true
				}
			}
			if !hasRecord || (f.FinishedOnSchedule && !onTime) {
				continue
			}
		}
		n++
	}
	return n, nil
}

// CountFieldRecords implements contracts.PeriodDataAccessor
func (d *Dataset) CountFieldRecords(_ context.Context, p contracts.Period, f contracts.FieldRecordFilter) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int64
	for _, r := range d.records {
		a, ok := d.activityInPeriod(r.ActivityID, p)
		if !ok {
			continue
		}
		if f.CompleteEvidence && !r.CompleteEvidence {
			continue
		}
		if f.WithFormData && len(r.FormData) == 0 {
			continue
		}
		if f.StartedOnSchedule && !sameDate(r.Start, a.Scheduled) {
			continue
		}
		if f.EnvironmentalCompliance && !flag(r.FormData, "cumplimiento_ambiental") {
			continue
		}
		n++
	}
	return n, nil
}

// CountWeekdays implements contracts.PeriodDataAccessor
func (d *Dataset) CountWeekdays(_ context.Context, p contracts.Period) (int64, error) {
	return int64(contracts.WeekdaysInMonth(p.Year, p.Month)), nil
}

// CountAccidentDays implements contracts.PeriodDataAccessor
func (d *Dataset) CountAccidentDays(_ context.Context, p contracts.Period) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	days := make(map[string]struct{})
	for _, r := range d.records {
		a, ok := d.activities[r.ActivityID]
		if !ok || a.LineID != p.LineID {
			continue
		}
		if !inMonth(r.Start, p) || !contracts.IsWeekday(r.Start) || !flag(r.FormData, "accidente_reportado") {
			continue
		}
		days[r.Start.Format("2006-01-02")] = struct{}{}
	}
	return int64(len(days)), nil
}

// ListActive implements contracts.IndicatorRepository
func (d *Dataset) ListActive(_ context.Context) ([]contracts.Indicator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]contracts.Indicator, 0, len(d.indicators))
	for _, ind := range d.indicators {
		if ind.Active {
			out = append(out, ind)
		}
	}
	return out, nil
}

// ListActiveLineIDs implements contracts.LineRepository
func (d *Dataset) ListActiveLineIDs(_ context.Context) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]int64, 0, len(d.lines))
	for id, active := range d.lines {
		if active {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
