package kpiconfig

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
)

// ValidationError reports one invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var hundred = decimal.NewFromInt(100)

// Validate checks that every category has a weight in [0, 100] and that they sum to 100
func Validate(cfg *Config) error {
	weights := cfg.WeightsPct.byCategory()
	for _, cat := range contracts.Categories() {
		w := weights[cat]
		field := "weights_pct." + strings.ToLower(string(cat))
		if w == nil {
			return ValidationError{field, "required"}
		}
		if w.IsNegative() || w.GreaterThan(hundred) {
			return ValidationError{field, fmt.Sprintf("must be in [0, 100], got %s", w)}
		}
	}

	if sum := cfg.WeightsPct.Sum(); !sum.Equal(hundred) {
		return ValidationError{"weights_pct", fmt.Sprintf("must sum to 100, got %s", sum)}
	}

	return nil
}
