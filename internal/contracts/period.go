package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned when a (línea, año, mes) triple is malformed.
// Callers check it with errors.Is; the wrapped message names the bad field.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is the unit of computation: one transmission line in one calendar month.
// Not stored; it only scopes queries.
type Period struct {
	LineID int64 `json:"linea_id"`
	Year   int   `json:"anio"`
	Month  int   `json:"mes"`
}

// NewPeriod builds a validated Period
func NewPeriod(lineID int64, year, month int) (Period, error) {
	p := Period{LineID: lineID, Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks line > 0, year > 0 and 1 <= month <= 12
func (p Period) Validate() error {
	if p.LineID <= 0 {
		return fmt.Errorf("%w: linea_id must be > 0, got %d", ErrInvalidPeriod, p.LineID)
	}
	return ValidateMonth(p.Year, p.Month)
}

// ValidateMonth checks a (year, month) pair without a line
func ValidateMonth(year, month int) error {
	if year <= 0 {
		return fmt.Errorf("%w: anio must be > 0, got %d", ErrInvalidPeriod, year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: mes must be in 1..12, got %d", ErrInvalidPeriod, month)
	}
	return nil
}

// Start returns the first day of the month (UTC, inclusive)
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month (UTC, exclusive)
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) String() string {
	return fmt.Sprintf("linea=%d %04d-%02d", p.LineID, p.Year, p.Month)
}

// IsWeekday reports whether t falls Monday..Friday
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WeekdaysInMonth counts Monday..Friday days of a calendar month (días hábiles,
// holidays not excluded)
func WeekdaysInMonth(year, month int) int {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	count := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			count++
		}
	}
	return count
}
