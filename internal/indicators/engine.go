// Package indicators computes the six maintenance KPIs of a line-month, combines them
// into the weighted global index and persists one measurement per active indicator.
package indicators

import (
	"context"
	"fmt"
	"time"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/pkg/logger"
)

// BatchObserver is notified after every successful batch (metrics, cache, realtime)
type BatchObserver interface {
	OnBatch(ctx context.Context, report *BatchReport)
}

// Engine is the indicator computation engine
// ⭐ SSOT: cálculo y persistencia de mediciones solo aquí
type Engine struct {
	accessor    contracts.PeriodDataAccessor
	indicators  contracts.IndicatorRepository
	store       contracts.MeasurementStore
	weights     Weights
	calculators map[contracts.Category]Calculator
	observers   []BatchObserver
	logger      *logger.Logger
	now         func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver registers a post-batch observer
func WithObserver(o BatchObserver) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithCalculators replaces the category → calculator table
func WithCalculators(table map[contracts.Category]Calculator) Option {
	return func(e *Engine) {
		e.calculators = table
	}
}

// NewEngine creates an engine. The weight table must cover the six categories.
func NewEngine(
	accessor contracts.PeriodDataAccessor,
	indicators contracts.IndicatorRepository,
	store contracts.MeasurementStore,
	weights Weights,
	log *logger.Logger,
	opts ...Option,
) (*Engine, error) {
	for _, cat := range contracts.Categories() {
		if _, ok := weights[cat]; !ok {
			return nil, fmt.Errorf("weight table: missing category %s", cat)
		}
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		accessor:    accessor,
		indicators:  indicators,
		store:       store,
		weights:     weights,
		calculators: defaultCalculators,
		logger:      log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddObserver registers an observer after construction
func (e *Engine) AddObserver(o BatchObserver) {
	WithObserver(o)(e)
}

// Weights returns the weight table in use
func (e *Engine) Weights() Weights {
	return e.weights
}
