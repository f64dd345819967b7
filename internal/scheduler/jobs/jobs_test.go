package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/internal/inmem"
)

type fakeRecomputer struct {
	months [][2]int
	err    error
}

func (f *fakeRecomputer) RunAllLines(_ context.Context, _ contracts.LineRepository, year, month int) ([]*indicators.BatchReport, error) {
	f.months = append(f.months, [2]int{year, month})
	return []*indicators.BatchReport{{}}, f.err
}

type failureCounter struct{ n int }

func (f *failureCounter) BatchFailed() { f.n++ }

func TestTargetMonths(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want [][2]int
	}{
		{"mid month", time.Date(2024, 6, 18, 2, 0, 0, 0, time.UTC), [][2]int{{2024, 6}}},
		{"early month", time.Date(2024, 6, 3, 2, 0, 0, 0, time.UTC), [][2]int{{2024, 5}, {2024, 6}}},
		{"early january", time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), [][2]int{{2023, 12}, {2024, 1}}},
		{"last grace day", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC), [][2]int{{2024, 2}, {2024, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, targetMonths(tt.now, PreviousMonthGraceDays))
		})
	}
}

func TestIndicatorRecomputeJob(t *testing.T) {
	rec := &fakeRecomputer{}
	job := NewIndicatorRecomputeJob(rec, inmem.NewDataset(), nil, "0 0 2 * * *", nil)
	job.now = func() time.Time { return time.Date(2024, 2, 2, 2, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, [][2]int{{2024, 1}, {2024, 2}}, rec.months)
	assert.Equal(t, "indicator_recompute", job.Name())
	assert.Equal(t, "0 0 2 * * *", job.Schedule())
}

func TestIndicatorRecomputeJob_Failure(t *testing.T) {
	rec := &fakeRecomputer{err: errors.New("linea 3: db down")}
	failures := &failureCounter{}
	job := NewIndicatorRecomputeJob(rec, inmem.NewDataset(), failures, "@daily", nil)
	job.now = func() time.Time { return time.Date(2024, 2, 20, 2, 0, 0, 0, time.UTC) }

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-02")
	assert.Equal(t, 1, failures.n)
}

func TestIndicatorRecomputeJob_FailedMonthDoesNotStopCurrent(t *testing.T) {
	rec := &fakeRecomputer{err: errors.New("linea 7: boom")}
	failures := &failureCounter{}
	job := NewIndicatorRecomputeJob(rec, inmem.NewDataset(), failures, "@daily", nil)
	job.now = func() time.Time { return time.Date(2024, 2, 2, 2, 0, 0, 0, time.UTC) }

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, [][2]int{{2024, 1}, {2024, 2}}, rec.months)
	assert.Contains(t, err.Error(), "recompute 2024-01")
	assert.Contains(t, err.Error(), "recompute 2024-02")
	assert.Equal(t, 2, failures.n)
}

func TestIndicatorRecomputeJob_WithEngine(t *testing.T) {
	ds := inmem.NewDataset()
	ds.AddActivity(inmem.Activity{ID: 1, LineID: 1, Scheduled: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), State: contracts.ActivityCompleted})
	ds.AddIndicator(contracts.Indicator{ID: 1, Code: "KPI-001", Category: contracts.CategoryGestion, Active: true})
	store := inmem.NewMeasurementStore()

	weights := indicators.Weights{}
	for _, cat := range contracts.Categories() {
		weights[cat] = decimal.NewFromInt(0)
	}
	engine, err := indicators.NewEngine(ds, ds, store, weights, nil)
	require.NoError(t, err)

	job := NewIndicatorRecomputeJob(engine, ds, nil, "@daily", nil)
	job.now = func() time.Time { return time.Date(2024, 6, 20, 2, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	m, ok := store.Get(1, 1, 2024, 6)
	require.True(t, ok)
	assert.True(t, m.Value.Equal(decimal.NewFromInt(100)))
}

type fakeIndex struct {
	periods []contracts.Period
}

func (f *fakeIndex) GlobalIndex(_ context.Context, p contracts.Period) (*indicators.IndexResult, error) {
	f.periods = append(f.periods, p)
	return &indicators.IndexResult{Period: p}, nil
}

func TestIndexWarmupJob(t *testing.T) {
	ds := inmem.NewDataset()
	ds.AddLine(1, true)
	ds.AddLine(2, false)
	ds.AddLine(3, true)
	idx := &fakeIndex{}

	job := NewIndexWarmupJob(idx, ds, nil)
	job.now = func() time.Time { return time.Date(2024, 9, 9, 10, 15, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []contracts.Period{
		{LineID: 1, Year: 2024, Month: 9},
		{LineID: 3, Year: 2024, Month: 9},
	}, idx.periods)
}
