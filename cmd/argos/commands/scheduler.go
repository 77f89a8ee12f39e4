package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/scheduler"
	"github.com/wonny/argos/internal/scheduler/jobs"
	"github.com/wonny/argos/internal/snapshot"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Starts the scheduler daemon or inspects its jobs.

Registered jobs:
- snapshot_capture: weekdays after the close (SNAPSHOT_CRON)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs

Example:
  go run ./cmd/argos scheduler start
  go run ./cmd/argos scheduler list`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Starts the scheduler and runs registered jobs on their cron
schedules until interrupted.

The snapshot capture job builds indicator snapshots for the configured
universe every weekday. A day that already has a snapshot is skipped, so
restarts never overwrite history.

Stop the scheduler with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Scheduler ===")

	// Initialize dependencies
	sched, st, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer st.Close()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	printJobStats(sched)
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, st, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer st.Close()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func printJobStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	if len(stats) == 0 {
		return
	}

	fmt.Println()
	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}
}

func initScheduler() (*scheduler.Scheduler, *stores, error) {
	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return nil, nil, err
	}

	// 2. Load strategy
	strat, _, err := loadStrategy(rt, strategyFile)
	if err != nil {
		return nil, nil, err
	}

	// 3. Open data stores
	st, err := openStores(rt)
	if err != nil {
		return nil, nil, err
	}

	// 4. Build indicator builder
	builder, _ := buildScoringStack(strat, rt.log)

	// 5. Create snapshot manager
	manager := snapshot.NewManager(st.snaps, st.prices, st.sectors, builder, rt.log.Zerolog())

	// 6. Create scheduler
	sched := scheduler.New(rt.log)

	// 7. Register jobs
	universe := rt.cfg.Scheduler.Universe
	if len(universe) == 0 {
		universe = strat.Universe.Tickers
	}
	job := jobs.NewSnapshotCaptureJob(manager, universe, rt.cfg.Scheduler.SnapshotCron, rt.log)
	if err := sched.AddJob(job); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("register job: %w", err)
	}

	return sched, st, nil
}
