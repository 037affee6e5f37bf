package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuora/backend/internal/scheduler"
	"github.com/valuora/backend/internal/scheduler/jobs"
	"github.com/valuora/backend/internal/valuation"
)

var (
	schedulerCron        string
	schedulerConcurrency int
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly valuation scheduler",
	Long: `Scheduler commands.

Registered jobs:
- nightly_valuation: values the whole record universe (default 02:30)

Commands:
  start   start the scheduler daemon
  run     trigger a job immediately

Example:
  go run ./cmd/valuora scheduler start
  go run ./cmd/valuora scheduler start --cron "0 0 3 * * *"
  go run ./cmd/valuora scheduler run nightly_valuation`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	Long: `Starts the scheduler and keeps it running until interrupted.

The nightly valuation job lists every record file, values each company
over a bounded worker pool and persists the results.`,
	RunE: runSchedulerStart,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job_name]",
	Short: "Trigger a job immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerJob,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().StringVar(&schedulerCron, "cron", "", `nightly job cron expression (default "0 30 2 * * *")`)
	schedulerStartCmd.Flags().IntVar(&schedulerConcurrency, "concurrency", 4, "concurrent companies per batch run")
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valuora Scheduler ===")

	e, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer e.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)

	e, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer e.close()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; poll the history until the run lands.
	fmt.Println("Job started, waiting for completion...")
	for {
		time.Sleep(2 * time.Second)
		history, err := sched.History(jobName)
		if err != nil {
			return err
		}
		latest := history.Latest(1)
		if len(latest) == 0 {
			continue
		}
		result := latest[0]
		if result.Success {
			fmt.Printf("✅ %s completed in %s\n", jobName, result.Duration.Round(time.Millisecond))
			return nil
		}
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}
}

func initScheduler() (*env, *scheduler.Scheduler, error) {
	e, err := setupEnv()
	if err != nil {
		return nil, nil, err
	}

	batch := valuation.NewBatch(e.service, e.results, valuation.BatchConfig{
		Workers: schedulerConcurrency,
	}, e.log)

	sched := scheduler.New(e.log)
	if err := sched.AddJob(jobs.NewValuationJob(batch, e.records, schedulerCron, e.log)); err != nil {
		e.close()
		return nil, nil, err
	}
	return e, sched, nil
}
