package inmem

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/transmaint/backend/internal/contracts"
)

// DemoIndicators are the six catalog entries used by Demo, one per category
func DemoIndicators() []contracts.Indicator {
	names := map[contracts.Category]string{
		contracts.CategoryGestion:    "Gestión de Mantenimiento",
		contracts.CategoryEjecucion:  "Ejecución de Mantenimiento",
		contracts.CategoryAmbiental:  "Gestión Ambiental",
		contracts.CategoryCalidad:    "Calidad de Información",
		contracts.CategorySeguridad:  "Seguridad Industrial",
		contracts.CategoryCronograma: "Cumplimiento de Cronograma",
	}

	out := make([]contracts.Indicator, 0, len(names))
	for i, cat := range contracts.Categories() {
		out = append(out, contracts.Indicator{
			ID:             int64(i + 1),
			Code:           string(cat)[:3] + "-01",
			Name:           names[cat],
			Category:       cat,
			Goal:           decimal.NewFromInt(90),
			AlertThreshold: decimal.NewFromInt(70),
			Active:         true,
		})
	}
	return out
}

// Demo builds a small dataset for one line and month: ten activities scheduled on
// days 1..10, nine of them with a field record and one accident reported on day 4.
func Demo(lineID int64, year, month int) *Dataset {
	d := NewDataset()
	d.AddLine(lineID, true)
	for _, ind := range DemoIndicators() {
		d.AddIndicator(ind)
	}

	priorities := []string{"URGENTE", "ALTA", "NORMAL", "BAJA"}
	for i := 1; i <= 10; i++ {
		scheduled := time.Date(year, time.Month(month), i, 0, 0, 0, 0, time.UTC)

		state := contracts.ActivityCompleted
		switch i {
		case 9:
			state = contracts.ActivityInProgress
		case 10:
			state = contracts.ActivityPending
		}

		id := lineID*100 + int64(i)
		d.AddActivity(Activity{
			ID:        id,
			LineID:    lineID,
			CrewID:    int64(i%3 + 1),
			Scheduled: scheduled,
			State:     state,
			Priority:  priorities[i%len(priorities)],
		})
		if i == 10 {
			continue
		}

		start := scheduled.Add(7 * time.Hour)
		if i == 9 {
			start = start.AddDate(0, 0, 1) // inicio tardío
		}

		var end *time.Time
		switch {
		case i <= 6:
			e := start.Add(5 * time.Hour)
			end = &e
		case i <= 8:
			e := scheduled.AddDate(0, 0, 1).Add(9 * time.Hour)
			end = &e
		}

		d.AddFieldRecord(FieldRecord{
			ID:               id,
			ActivityID:       id,
			Start:            start,
			End:              end,
			CompleteEvidence: i != 3,
			FormData: map[string]any{
				"cumplimiento_ambiental": i != 5 && i != 6,
				"accidente_reportado":    i == 4,
			},
		})
	}
	return d
}
