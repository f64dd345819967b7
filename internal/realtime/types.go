package realtime

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/indicators"
)

// MeasurementEvent is pushed to subscribers after each indicator batch
// ⭐ SSOT: estructura de eventos en tiempo real
type MeasurementEvent struct {
	Type       string            `json:"type"` // "batch"
	RunID      string            `json:"run_id"`
	LineID     int64             `json:"linea_id"`
	Year       int               `json:"anio"`
	Month      int               `json:"mes"`
	Results    []MeasurementItem `json:"resultados"`
	Skipped    int               `json:"omitidos"`
	OccurredAt time.Time         `json:"timestamp"`
}

// MeasurementItem is one indicator value of an event
type MeasurementItem struct {
	IndicatorID int64           `json:"indicador_id"`
	Code        string          `json:"codigo"`
	Category    string          `json:"categoria"`
	Value       decimal.Decimal `json:"valor"`
	MeetsGoal   bool            `json:"cumple_meta"`
	InAlert     bool            `json:"en_alerta"`
}

// NewMeasurementEvent converts a batch report into an event
func NewMeasurementEvent(report *indicators.BatchReport, at time.Time) MeasurementEvent {
	items := make([]MeasurementItem, 0, len(report.Results))
	for _, r := range report.Results {
		items = append(items, MeasurementItem{
			IndicatorID: r.Indicator.ID,
			Code:        r.Indicator.Code,
			Category:    string(r.Indicator.Category),
			Value:       r.Measurement.Value,
			MeetsGoal:   r.Measurement.MeetsGoal,
			InAlert:     r.Measurement.InAlert,
		})
	}
	return MeasurementEvent{
		Type:       "batch",
		RunID:      report.RunID,
		LineID:     report.Period.LineID,
		Year:       report.Period.Year,
		Month:      report.Period.Month,
		Results:    items,
		Skipped:    len(report.Skipped),
		OccurredAt: at,
	}
}
