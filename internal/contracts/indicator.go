package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups indicators; each category maps to one calculator and one weight
type Category string

const (
	CategoryGestion    Category = "GESTION"    // Gestión de Mantenimiento
	CategoryEjecucion  Category = "EJECUCION"  // Ejecución de Mantenimiento
	CategoryAmbiental  Category = "AMBIENTAL"  // Gestión Ambiental
	CategoryCalidad    Category = "CALIDAD"    // Calidad de Información
	CategorySeguridad  Category = "SEGURIDAD"  // Seguridad Industrial
	CategoryCronograma Category = "CRONOGRAMA" // Cumplimiento de Cronograma
)

// Categories returns the six indicator categories in display order
func Categories() []Category {
	return []Category{
		CategoryGestion,
		CategoryEjecucion,
		CategoryAmbiental,
		CategoryCalidad,
		CategorySeguridad,
		CategoryCronograma,
	}
}

// Known reports whether c is one of the six categories
func (c Category) Known() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

// Indicator is a KPI definition (Indicador). Read-only for the engine.
type Indicator struct {
	ID             int64           `json:"id"`
	Code           string          `json:"codigo"`
	Name           string          `json:"nombre"`
	Category       Category        `json:"categoria"`
	Goal           decimal.Decimal `json:"meta"`
	AlertThreshold decimal.Decimal `json:"umbral_alerta"`
	Active         bool            `json:"activo"`
}

// Evaluate returns (cumple_meta, en_alerta) for a computed value
func (i Indicator) Evaluate(value decimal.Decimal) (meetsGoal bool, inAlert bool) {
	return value.GreaterThanOrEqual(i.Goal), value.LessThan(i.AlertThreshold)
}

// Measurement is the computed value of one indicator for one period (Medición).
// At most one exists per (IndicatorID, LineID, Year, Month).
type Measurement struct {
	IndicatorID int64           `json:"indicador_id"`
	LineID      int64           `json:"linea_id"`
	Year        int             `json:"anio"`
	Month       int             `json:"mes"`
	Value       decimal.Decimal `json:"valor_calculado"`
	MeetsGoal   bool            `json:"cumple_meta"`
	InAlert     bool            `json:"en_alerta"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Ratio is a calculator output: numerator, denominator and percentage (0..100, 2 decimals)
type Ratio struct {
	Numerator   decimal.Decimal `json:"numerador"`
	Denominator decimal.Decimal `json:"denominador"`
	Percentage  decimal.Decimal `json:"porcentaje"`
}

// NewRatio computes num/den*100 rounded to 2 decimals and clamped to [0, 100].
// A zero denominator is the "no data" state and yields (0, 0, 0).
func NewRatio(num, den int64) Ratio {
	if den <= 0 {
		return Ratio{
			Numerator:   decimal.Zero,
			Denominator: decimal.Zero,
			Percentage:  decimal.Zero,
		}
	}

	n := decimal.NewFromInt(num)
	d := decimal.NewFromInt(den)
	pct := n.Mul(hundred).Div(d).Round(2)

	switch {
	case pct.IsNegative():
		pct = decimal.Zero
	case pct.GreaterThan(hundred):
		pct = hundred
	}

	return Ratio{Numerator: n, Denominator: d, Percentage: pct}
}

// IsEmpty reports the zero-denominator state
func (r Ratio) IsEmpty() bool {
	return r.Denominator.IsZero()
}
