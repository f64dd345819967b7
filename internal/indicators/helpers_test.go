package indicators

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/inmem"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year, month, dd int) time.Time {
	return time.Date(year, time.Month(month), dd, 8, 0, 0, 0, time.UTC)
}

func equalWeights() Weights {
	return Weights{
		contracts.CategoryGestion:    d("20"),
		contracts.CategoryEjecucion:  d("20"),
		contracts.CategoryAmbiental:  d("15"),
		contracts.CategoryCalidad:    d("15"),
		contracts.CategorySeguridad:  d("15"),
		contracts.CategoryCronograma: d("15"),
	}
}

func indicator(id int64, code string, cat contracts.Category) contracts.Indicator {
	return contracts.Indicator{
		ID:             id,
		Code:           code,
		Name:           code,
		Category:       cat,
		Goal:           d("90"),
		AlertThreshold: d("70"),
		Active:         true,
	}
}

func allIndicators() []contracts.Indicator {
	var out []contracts.Indicator
	for i, cat := range contracts.Categories() {
		out = append(out, indicator(int64(i+1), "KPI-"+string(cat), cat))
	}
	return out
}

func newTestEngine(t *testing.T, ds *inmem.Dataset, store contracts.MeasurementStore, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(ds, ds, store, equalWeights(), nil, opts...)
	require.NoError(t, err)
	return e
}

// countingAccessor counts calls and can fail for one line
type countingAccessor struct {
	contracts.PeriodDataAccessor
	mu       sync.Mutex
	calls    int
	failLine int64
}

var errAccessor = errors.New("accessor down")

func (c *countingAccessor) hit(p contracts.Period) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.failLine != 0 && p.LineID == c.failLine {
		return errAccessor
	}
	return nil
}

func (c *countingAccessor) CountActivities(ctx context.Context, p contracts.Period, f contracts.ActivityFilter) (int64, error) {
	if err := c.hit(p); err != nil {
		return 0, err
	}
	return c.PeriodDataAccessor.CountActivities(ctx, p, f)
}

func (c *countingAccessor) CountFieldRecords(ctx context.Context, p contracts.Period, f contracts.FieldRecordFilter) (int64, error) {
	if err := c.hit(p); err != nil {
		return 0, err
	}
	return c.PeriodDataAccessor.CountFieldRecords(ctx, p, f)
}

type recordingObserver struct {
	reports []*BatchReport
}

func (o *recordingObserver) OnBatch(_ context.Context, r *BatchReport) {
	o.reports = append(o.reports, r)
}

// mapCache is an in-process Cache
type mapCache struct {
	data    map[string][]byte
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}
