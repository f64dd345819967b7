package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/transmaint/backend/internal/contracts"
)

// indiceCmd represents the indice command
var indiceCmd = &cobra.Command{
	Use:   "indice",
	Short: "Consultar el índice global de una línea",
	Long: `Calcula el índice global ponderado de una línea y mes.

El índice combina los seis indicadores con las ponderaciones de
KPI_CONFIG_PATH. No persiste mediciones; usa la caché Redis si está activa.

Example:
  go run ./cmd/transmaint indice --linea 3
  go run ./cmd/transmaint indice --linea 3 --anio 2024 --mes 3 --json`,
	RunE: runIndice,
}

var (
	indiceLinea int64
	indiceAnio  int
	indiceMes   int
	indiceJSON  bool
)

func init() {
	rootCmd.AddCommand(indiceCmd)

	now := time.Now()
	indiceCmd.Flags().Int64Var(&indiceLinea, "linea", 0, "ID de la línea de transmisión")
	indiceCmd.Flags().IntVar(&indiceAnio, "anio", now.Year(), "año del periodo")
	indiceCmd.Flags().IntVar(&indiceMes, "mes", int(now.Month()), "mes del periodo (1-12)")
	indiceCmd.Flags().BoolVar(&indiceJSON, "json", false, "salida JSON")
	_ = indiceCmd.MarkFlagRequired("linea")
}

func runIndice(cmd *cobra.Command, args []string) error {
	p, err := contracts.NewPeriod(indiceLinea, indiceAnio, indiceMes)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := a.index.GlobalIndex(ctx, p)
	if err != nil {
		return fmt.Errorf("índice %s: %w", p, err)
	}

	if indiceJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	PrintIndex(result)
	return nil
}
