package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/transmaint/backend/internal/contracts"
)

type measurementKey struct {
	indicatorID int64
	lineID      int64
	year        int
	month       int
}

// MeasurementStore is an in-memory contracts.MeasurementStore with the same
// one-row-per-key guarantee as the database unique constraint
type MeasurementStore struct {
	mu      sync.Mutex
	rows    map[measurementKey]contracts.Measurement
	upserts int
	now     func() time.Time

	// FailWith, when set, is returned by every Upsert
	FailWith error
}

// NewMeasurementStore returns an empty store
func NewMeasurementStore() *MeasurementStore {
	return &MeasurementStore{
		rows: make(map[measurementKey]contracts.Measurement),
		now:  time.Now,
	}
}

// Upsert creates or overwrites the measurement for its key
func (s *MeasurementStore) Upsert(_ context.Context, m contracts.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	m.UpdatedAt = s.now()
	s.rows[measurementKey{m.IndicatorID, m.LineID, m.Year, m.Month}] = m
	s.upserts++
	return nil
}

// Get returns the stored measurement for a key
func (s *MeasurementStore) Get(indicatorID, lineID int64, year, month int) (contracts.Measurement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.rows[measurementKey{indicatorID, lineID, year, month}]
	return m, ok
}

// All returns every row ordered by (line, year, month, indicator)
func (s *MeasurementStore) All() []contracts.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contracts.Measurement, 0, len(s.rows))
	for _, m := range s.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LineID != b.LineID {
			return a.LineID < b.LineID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.IndicatorID < b.IndicatorID
	})
	return out
}

// Len returns the number of distinct rows
func (s *MeasurementStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Upserts returns how many Upsert calls succeeded
func (s *MeasurementStore) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}
