package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"password", "postgresql://kpi:s3cret@db:5432/transmaint", "postgresql://kpi:***@db:5432/transmaint"},
		{"no password", "postgresql://kpi@db:5432/transmaint", "postgresql://kpi@db:5432/transmaint"},
		{"no user", "postgresql://db/transmaint", "postgresql://db/transmaint"},
		{"short", "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskPassword(tt.in))
		})
	}
}
