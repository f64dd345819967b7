package kpiconfig

import (
	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
)

// Config is the KPI engine configuration read from YAML
type Config struct {
	Version    string     `yaml:"version" json:"version"`
	WeightsPct WeightsPct `yaml:"weights_pct" json:"weights_pct"`
}

// WeightsPct is the weight of each category in the global index, in percent (suma = 100).
// Pointers distinguish a missing key from an explicit 0.
type WeightsPct struct {
	Gestion    *decimal.Decimal `yaml:"gestion" json:"gestion"`
	Ejecucion  *decimal.Decimal `yaml:"ejecucion" json:"ejecucion"`
	Ambiental  *decimal.Decimal `yaml:"ambiental" json:"ambiental"`
	Calidad    *decimal.Decimal `yaml:"calidad" json:"calidad"`
	Seguridad  *decimal.Decimal `yaml:"seguridad" json:"seguridad"`
	Cronograma *decimal.Decimal `yaml:"cronograma" json:"cronograma"`
}

func (w WeightsPct) byCategory() map[contracts.Category]*decimal.Decimal {
	return map[contracts.Category]*decimal.Decimal{
		contracts.CategoryGestion:    w.Gestion,
		contracts.CategoryEjecucion:  w.Ejecucion,
		contracts.CategoryAmbiental:  w.Ambiental,
		contracts.CategoryCalidad:    w.Calidad,
		contracts.CategorySeguridad:  w.Seguridad,
		contracts.CategoryCronograma: w.Cronograma,
	}
}

// Sum adds every configured weight; missing weights count as 0
func (w WeightsPct) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range w.byCategory() {
		if v != nil {
			sum = sum.Add(*v)
		}
	}
	return sum
}

// Table returns the category→weight table used by the index calculator.
// Call only on a validated Config.
func (c *Config) Table() map[contracts.Category]decimal.Decimal {
	table := make(map[contracts.Category]decimal.Decimal, 6)
	for cat, v := range c.WeightsPct.byCategory() {
		if v != nil {
			table[cat] = *v
		}
	}
	return table
}
