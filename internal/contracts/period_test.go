package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	tests := []struct {
		name    string
		lineID  int64
		year    int
		month   int
		wantErr bool
	}{
		{"valid", 1, 2024, 1, false},
		{"december", 9, 2023, 12, false},
		{"zero line", 0, 2024, 1, true},
		{"negative line", -3, 2024, 1, true},
		{"zero year", 1, 0, 1, true},
		{"month zero", 1, 2024, 0, true},
		{"month thirteen", 1, 2024, 13, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPeriod(tt.lineID, tt.year, tt.month)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPeriod))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Period{LineID: tt.lineID, Year: tt.year, Month: tt.month}, p)
		})
	}
}

func TestPeriodBounds(t *testing.T) {
	p := Period{LineID: 1, Year: 2023, Month: 12}

	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, "linea=1 2023-12", p.String())
}

func TestWeekdaysInMonth(t *testing.T) {
	tests := []struct {
		year, month int
		want        int
	}{
		{2024, 1, 23}, // empieza lunes, 31 días
		{2024, 2, 21}, // bisiesto
		{2024, 6, 20}, // empieza sábado
		{2023, 2, 20},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekdaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, IsWeekday(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)))  // lunes
	assert.False(t, IsWeekday(time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC))) // sábado
	assert.False(t, IsWeekday(time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC))) // domingo
}
