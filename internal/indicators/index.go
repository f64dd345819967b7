package indicators

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
)

var hundred = decimal.NewFromInt(100)

// Weights maps each category to its weight in percent. The six entries sum to 100.
type Weights map[contracts.Category]decimal.Decimal

// CategoryDetail is one row of the index breakdown
type CategoryDetail struct {
	Valor        decimal.Decimal `json:"valor"`
	Peso         decimal.Decimal `json:"peso"`
	Contribucion decimal.Decimal `json:"contribucion"`
}

// IndexResult is the weighted global index plus its per-category breakdown.
// Details always carries the six categories.
type IndexResult struct {
	Period  contracts.Period                      `json:"periodo"`
	Global  decimal.Decimal                       `json:"indice_global"`
	Details map[contracts.Category]CategoryDetail `json:"detalles"`
}

// ComposeIndex combines per-category values with the weight table.
// Missing values count as 0; contributions are exact so Σ contribucion == Global.
func ComposeIndex(values map[contracts.Category]decimal.Decimal, weights Weights) *IndexResult {
	result := &IndexResult{
		Global:  decimal.Zero,
		Details: make(map[contracts.Category]CategoryDetail, len(contracts.Categories())),
	}

	for _, cat := range contracts.Categories() {
		value, ok := values[cat]
		if !ok {
			value = decimal.Zero
		}
		weight, ok := weights[cat]
		if !ok {
			weight = decimal.Zero
		}

		contribution := value.Mul(weight).Div(hundred)
		result.Details[cat] = CategoryDetail{
			Valor:        value,
			Peso:         weight,
			Contribucion: contribution,
		}
		result.Global = result.Global.Add(contribution)
	}

	return result
}

// ComputeRatios runs the six calculators for a period without persisting anything
func (e *Engine) ComputeRatios(ctx context.Context, p contracts.Period) (map[contracts.Category]contracts.Ratio, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ratios := make(map[contracts.Category]contracts.Ratio, len(contracts.Categories()))
	for _, cat := range contracts.Categories() {
		calc, ok := e.calculators[cat]
		if !ok {
			ratios[cat] = contracts.NewRatio(0, 0)
			continue
		}
		r, err := calc(ctx, e.accessor, p)
		if err != nil {
			return nil, fmt.Errorf("compute %s for %s: %w", cat, p, err)
		}
		ratios[cat] = r
	}
	return ratios, nil
}

// GlobalIndex computes the composite index of a period
func (e *Engine) GlobalIndex(ctx context.Context, p contracts.Period) (*IndexResult, error) {
	ratios, err := e.ComputeRatios(ctx, p)
	if err != nil {
		return nil, err
	}

	values := make(map[contracts.Category]decimal.Decimal, len(ratios))
	for cat, r := range ratios {
		values[cat] = r.Percentage
	}

	result := ComposeIndex(values, e.weights)
	result.Period = p
	return result, nil
}
