package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/transmaint/backend/internal/scheduler"
	"github.com/transmaint/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Gestión del scheduler",
	Long: `Inicia el scheduler o gestiona sus trabajos.

Este comando:
- Inicia el demonio del scheduler
- Lista los trabajos registrados
- Ejecuta un trabajo de inmediato
- Muestra el historial de ejecución

Subcommands:
  start   - Iniciar el scheduler
  list    - Trabajos registrados
  run     - Ejecutar un trabajo ahora
  status  - Estado de ejecución

Example:
  go run ./cmd/transmaint scheduler start
  go run ./cmd/transmaint scheduler list
  go run ./cmd/transmaint scheduler run indicator_recompute`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Iniciar el scheduler",
		Long: `Inicia el scheduler y programa todos los trabajos registrados.

Trabajos registrados:
- indicator_recompute: RECOMPUTE_SCHEDULE (por defecto 02:00 diario);
  durante los primeros días del mes recalcula también el mes anterior
- index_warmup: cada hora en el minuto 15 (precarga del índice global)

El scheduler se detiene con Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "Trabajos registrados",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Ejecutar un trabajo ahora",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Estado de ejecución de los trabajos",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Transmaint Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.Names())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, name := range sched.Names() {
		job, _ := sched.Lookup(name)
		PrintKeyValue(name, job.Schedule(), 20)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sched.RunNow(ctx, jobName)
	if runs, err := sched.Latest(jobName, 1); err == nil && len(runs) == 1 {
		PrintKeyValue("Attempts", fmt.Sprintf("%d", runs[0].Attempts), 10)
		PrintKeyValue("Duration", runs[0].Duration.String(), 10)
	}
	if runErr != nil {
		PrintError(fmt.Sprintf("Job %s failed: %v", jobName, runErr))
		return fmt.Errorf("run job: %w", runErr)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// el historial vive en memoria: solo refleja ejecuciones de este proceso
	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, stat := range sched.Stats() {
		fmt.Printf("📊 %s\n", stat.Job)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		printTime("Last Run", stat.LastRun)
		printTime("Last Success", stat.LastSuccess)
		printTime("Last Failure", stat.LastFailure)
		if stat.LastError != "" {
			fmt.Printf("   Last Error: %s\n", stat.LastError)
		}

		fmt.Println()
	}

	return nil
}

func printTime(label string, ts *time.Time) {
	if ts != nil {
		fmt.Printf("   %s: %s\n", label, ts.Format("2006-01-02 15:04:05"))
	}
}

// newScheduler registers the KPI jobs on a fresh scheduler
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.Options{
		MaxRetries: a.cfg.Scheduler.MaxRetries,
		RetryDelay: a.cfg.Scheduler.RetryDelay,
	})

	recompute := jobs.NewIndicatorRecomputeJob(a.engine, a.accessor, a.metrics, a.cfg.Scheduler.RecomputeSchedule, a.log)
	if err := sched.AddJob(recompute); err != nil {
		return nil, fmt.Errorf("add %s: %w", recompute.Name(), err)
	}

	warmup := jobs.NewIndexWarmupJob(a.index, a.accessor, a.log)
	if err := sched.AddJob(warmup); err != nil {
		return nil, fmt.Errorf("add %s: %w", warmup.Name(), err)
	}

	return sched, nil
}
