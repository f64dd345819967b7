package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transmaint",
	Short: "Transmaint - indicadores de mantenimiento de líneas de transmisión",
	Long: `Transmaint Unified CLI

Motor de indicadores KPI para el mantenimiento de líneas de transmisión.
Calcula seis indicadores por línea y mes, persiste las mediciones y
compone el índice global ponderado.

Usage:
  go run ./cmd/transmaint [command]

Examples:
  go run ./cmd/transmaint api
  go run ./cmd/transmaint calcular --linea 3 --anio 2024 --mes 3
  go run ./cmd/transmaint calcular --todas
  go run ./cmd/transmaint indice --linea 3
  go run ./cmd/transmaint scheduler start
  go run ./cmd/transmaint test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
