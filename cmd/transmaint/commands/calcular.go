package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/internal/inmem"
	"github.com/transmaint/backend/pkg/config"
	"github.com/transmaint/backend/pkg/logger"
)

// calcularCmd represents the calcular command
var calcularCmd = &cobra.Command{
	Use:   "calcular",
	Short: "Calcular y persistir indicadores de un periodo",
	Long: `Calcula los indicadores activos de una línea y mes y guarda las mediciones.

Las mediciones existentes del mismo periodo se actualizan (upsert); las
categorías sin calculador se omiten con una advertencia.

Modos:
  --linea N        una sola línea
  --todas          todas las líneas activas
  --demo           datos de ejemplo en memoria, sin base de datos

Example:
  go run ./cmd/transmaint calcular --linea 3 --anio 2024 --mes 3
  go run ./cmd/transmaint calcular --todas
  go run ./cmd/transmaint calcular --demo --anio 2024 --mes 3`,
	RunE: runCalcular,
}

var (
	calcLinea   int64
	calcAnio    int
	calcMes     int
	calcTodas   bool
	calcDemo    bool
	calcWeights string
)

func init() {
	rootCmd.AddCommand(calcularCmd)

	now := time.Now()
	calcularCmd.Flags().Int64Var(&calcLinea, "linea", 0, "ID de la línea de transmisión")
	calcularCmd.Flags().IntVar(&calcAnio, "anio", now.Year(), "año del periodo")
	calcularCmd.Flags().IntVar(&calcMes, "mes", int(now.Month()), "mes del periodo (1-12)")
	calcularCmd.Flags().BoolVar(&calcTodas, "todas", false, "calcular todas las líneas activas")
	calcularCmd.Flags().BoolVar(&calcDemo, "demo", false, "usar datos de ejemplo en memoria")
	calcularCmd.Flags().StringVar(&calcWeights, "pesos", "config/indicadores.yaml", "tabla de ponderaciones (solo --demo)")
	calcularCmd.MarkFlagsMutuallyExclusive("linea", "todas")
	calcularCmd.MarkFlagsMutuallyExclusive("todas", "demo")
}

func runCalcular(cmd *cobra.Command, args []string) error {
	if calcDemo {
		return runCalcularDemo()
	}
	if !calcTodas && calcLinea <= 0 {
		return fmt.Errorf("--linea o --todas es obligatorio")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if calcTodas {
		reports, err := a.engine.RunAllLines(ctx, a.accessor, calcAnio, calcMes)
		for _, report := range reports {
			PrintBatchReport(report)
		}
		if err != nil {
			a.metrics.BatchFailed()
			PrintError(err.Error())
			return err
		}
		fmt.Println()
		PrintSuccess(fmt.Sprintf("%d líneas calculadas", len(reports)))
		return nil
	}

	p, err := contracts.NewPeriod(calcLinea, calcAnio, calcMes)
	if err != nil {
		return err
	}

	report, err := a.engine.Run(ctx, p)
	if err != nil {
		a.metrics.BatchFailed()
		return fmt.Errorf("calcular %s: %w", p, err)
	}

	PrintBatchReport(report)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d mediciones guardadas", len(report.Results)))
	return nil
}

// runCalcularDemo runs the engine against the in-memory demo dataset
func runCalcularDemo() error {
	log := logger.New(&config.Config{Env: "development", LogLevel: "warn", LogFormat: "console"})
	if verbose {
		log = logger.New(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "console"})
	}

	weights, err := loadWeights(calcWeights, log)
	if err != nil {
		return err
	}

	lineID := calcLinea
	if lineID <= 0 {
		lineID = 1
	}
	p, err := contracts.NewPeriod(lineID, calcAnio, calcMes)
	if err != nil {
		return err
	}

	data := inmem.Demo(p.LineID, p.Year, p.Month)
	store := inmem.NewMeasurementStore()

	engine, err := indicators.NewEngine(data, data, store, weights, log)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	ctx := context.Background()
	report, err := engine.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("calcular %s: %w", p, err)
	}
	PrintBatchReport(report)

	index, err := engine.GlobalIndex(ctx, p)
	if err != nil {
		return fmt.Errorf("índice %s: %w", p, err)
	}
	PrintIndex(index)

	fmt.Println()
	PrintInfo(fmt.Sprintf("Modo demo: %d mediciones en memoria, nada se guardó en la base de datos", store.Len()))
	return nil
}
