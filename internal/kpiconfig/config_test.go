package kpiconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
)

const validYAML = `
version: "test"
weights_pct:
  gestion: 25
  ejecucion: 20
  ambiental: 10
  calidad: 15
  seguridad: 17.5
  cronograma: 12.5
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.True(t, cfg.WeightsPct.Sum().Equal(decimal.NewFromInt(100)))

	table := cfg.Table()
	assert.Len(t, table, 6)
	assert.True(t, table[contracts.CategorySeguridad].Equal(decimal.RequireFromString("17.5")))
	assert.True(t, table[contracts.CategoryGestion].Equal(decimal.NewFromInt(25)))
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{
			name: "sum below 100",
			yaml: `
weights_pct:
  gestion: 10
  ejecucion: 10
  ambiental: 10
  calidad: 10
  seguridad: 10
  cronograma: 10
`,
			wantField: "weights_pct",
		},
		{
			name: "missing category",
			yaml: `
weights_pct:
  gestion: 20
  ejecucion: 20
  ambiental: 20
  calidad: 20
  seguridad: 20
`,
			wantField: "weights_pct.cronograma",
		},
		{
			name: "negative weight",
			yaml: `
weights_pct:
  gestion: -10
  ejecucion: 30
  ambiental: 20
  calidad: 20
  seguridad: 20
  cronograma: 20
`,
			wantField: "weights_pct.gestion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
weights_pct:
  gestion: 20
  ejecucion: 20
  ambiental: 15
  calidad: 15
  seguridad: 15
  cronograma: 10
  financiero: 5
`))
	assert.Error(t, err)
}

func TestLoadAndHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indicadores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, validYAML, string(raw))

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	again, _ := Hash(cfg)
	assert.Equal(t, hash, again, "hash must be deterministic")
}

func TestLoadShippedConfig(t *testing.T) {
	path := "../../config/indicadores.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	_, _, err := Load(path)
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
