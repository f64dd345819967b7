// Package dashboard builds the monthly KPI dashboard: measurement summary, activity
// compliance, crew ranking, six-month trend and priority breakdown.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/pkg/logger"
	"github.com/transmaint/backend/pkg/redis"
)

const (
	// TrendMonths is the length of the planned/executed trend
	TrendMonths = 6
	// CrewLimit caps the crew ranking
	CrewLimit = 10
	// TypeLimit caps the activity types considered for the type breakdown
	TypeLimit = 8
	// RecentLimit is the number of recently updated activities listed
	RecentLimit = 5
)

var monthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// Priorities in display order
var Priorities = []string{"URGENTE", "ALTA", "NORMAL", "BAJA"}

// Store reads the aggregates the dashboard needs
type Store interface {
	MeasurementSummary(ctx context.Context, year, month int) (MeasurementSummary, error)
	IndicatorPoints(ctx context.Context, year, month int) ([]IndicatorPoint, error)
	ActivityCounts(ctx context.Context, year, month int) (ActivityCounts, error)
	CrewCounts(ctx context.Context, year, month, limit int) ([]CrewCounts, error)
	PriorityCounts(ctx context.Context, year, month int) (map[string]int64, error)
	TypeCounts(ctx context.Context, year, month, limit int) ([]TypeCount, error)
	RecentActivities(ctx context.Context, limit int) ([]RecentActivity, error)
}

// Cache is satisfied by *redis.Cache
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service assembles dashboard summaries
type Service struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewService creates a dashboard service. cache may be nil.
func NewService(store Store, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = redis.TTLShort
	}
	return &Service{store: store, cache: cache, ttl: ttl, logger: log}
}

// Summary returns the dashboard of (year, month)
func (s *Service) Summary(ctx context.Context, year, month int) (*Summary, error) {
	if err := contracts.ValidateMonth(year, month); err != nil {
		return nil, err
	}

	key := redis.DashboardKey(year, month)
	if s.cache != nil {
		var cached Summary
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Dashboard cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	summary, err := s.build(ctx, year, month)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Dashboard cache write failed")
		}
	}
	return summary, nil
}

func (s *Service) build(ctx context.Context, year, month int) (*Summary, error) {
	measurements, err := s.store.MeasurementSummary(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("measurement summary: %w", err)
	}

	points, err := s.store.IndicatorPoints(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("indicator points: %w", err)
	}

	activities, err := s.store.ActivityCounts(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}

	crewCounts, err := s.store.CrewCounts(ctx, year, month, CrewLimit)
	if err != nil {
		return nil, fmt.Errorf("crew counts: %w", err)
	}
	crews := make([]CrewCompliance, 0, len(crewCounts))
	for _, c := range crewCounts {
		crews = append(crews, CrewCompliance{
			Code:       c.Code,
			Compliance: percent(c.Completed, c.Programmed, 1),
		})
	}

	trend := make([]TrendPoint, 0, TrendMonths)
	for _, ym := range trailingMonths(year, month, TrendMonths) {
		counts, err := s.store.ActivityCounts(ctx, ym[0], ym[1])
		if err != nil {
			return nil, fmt.Errorf("trend %04d-%02d: %w", ym[0], ym[1], err)
		}
		trend = append(trend, TrendPoint{
			Label:    monthLabels[ym[1]-1],
			Year:     ym[0],
			Month:    ym[1],
			Planned:  counts.Programmed,
			Executed: counts.Completed,
		})
	}

	byPriority, err := s.store.PriorityCounts(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("priority counts: %w", err)
	}
	priorities := make(map[string]int64, len(Priorities))
	for _, p := range Priorities {
		priorities[p] = byPriority[p]
	}

	typeCounts, err := s.store.TypeCounts(ctx, year, month, TypeLimit)
	if err != nil {
		return nil, fmt.Errorf("type counts: %w", err)
	}
	// tipos sin actividades en el mes no aparecen
	types := make([]TypeCount, 0, len(typeCounts))
	for _, tc := range typeCounts {
		if tc.Count > 0 {
			types = append(types, tc)
		}
	}

	recent, err := s.store.RecentActivities(ctx, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	if recent == nil {
		recent = []RecentActivity{}
	}

	return &Summary{
		Year:         year,
		Month:        month,
		Measurements: measurements,
		Activities:   activities,
		Compliance:   percent(activities.Completed, activities.Programmed, 2),
		Crews:        crews,
		Trend:        trend,
		Priorities:   priorities,
		Indicators:   points,
		Types:        types,
		Recent:       recent,
	}, nil
}

// trailingMonths returns n (year, month) pairs ending at (year, month), oldest first
func trailingMonths(year, month, n int) [][2]int {
	out := make([][2]int, 0, n)
	for i := n - 1; i >= 0; i-- {
		y, m := year, month-i
		for m <= 0 {
			m += 12
			y--
		}
		out = append(out, [2]int{y, m})
	}
	return out
}

func percent(num, den int64, places int32) decimal.Decimal {
	if den <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(den)).Round(places)
}
