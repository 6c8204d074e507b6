package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Liszten/kpiComp/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/rater scheduler start
  go run ./cmd/rater scheduler list
  go run ./cmd/rater scheduler run sector_warmup`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- universe_refresh: 매일 오전 6시 (구성 종목 재수집)
- sector_warmup: 매시 5분 (섹터 피어 KPI 캐시 예열)
- cache_cleanup: 5분마다 (만료된 섹터 캐시 정리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
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

// withScheduler wires the app and its scheduler for one command
func withScheduler(logOut io.Writer, fn func(a *app, sched *scheduler.Scheduler) error) error {
	a, err := newApp(logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	return fn(a, sched)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== kpiComp Scheduler ===")

	return withScheduler(out, func(_ *app, sched *scheduler.Scheduler) error {
		sched.Start()

		printSuccess(out, "Scheduler started successfully")
		fmt.Fprintln(out, "\nRegistered jobs:")
		for _, jobName := range sched.GetAllJobs() {
			fmt.Fprintf(out, "  - %s\n", jobName)
		}
		fmt.Fprintln(out, "\nPress Ctrl+C to stop")

		// Wait for interrupt signal
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		fmt.Fprintln(out, "\nShutting down scheduler...")
		sched.Stop()
		fmt.Fprintln(out, "Scheduler stopped")
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withScheduler(cmd.ErrOrStderr(), func(_ *app, sched *scheduler.Scheduler) error {
		stats := sched.GetJobStats()

		fmt.Fprintln(out, "Registered jobs:")
		for _, jobName := range sched.GetAllJobs() {
			fmt.Fprintf(out, "  - %-18s %s\n", jobName, stats[jobName].Schedule)
		}
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Running job: %s\n", jobName)

	return withScheduler(cmd.ErrOrStderr(), func(_ *app, sched *scheduler.Scheduler) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := sched.RunJobSync(ctx, jobName)
		if err != nil {
			return fmt.Errorf("run job: %w", err)
		}

		printSuccess(out, fmt.Sprintf("Job %s completed in %.2fs (%d attempts)", jobName, result.Duration.Seconds(), result.Attempts))
		return nil
	})
}

func showStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withScheduler(cmd.ErrOrStderr(), func(_ *app, sched *scheduler.Scheduler) error {
		stats := sched.GetJobStats()

		fmt.Fprintln(out, "Job Statistics:")
		fmt.Fprintln(out)

		for _, jobName := range sched.GetAllJobs() {
			stat := stats[jobName]
			fmt.Fprintf(out, "📊 %s\n", jobName)
			fmt.Fprintf(out, "   Schedule: %s\n", stat.Schedule)
			fmt.Fprintf(out, "   Total Runs: %d\n", stat.TotalRuns)
			fmt.Fprintf(out, "   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
			fmt.Fprintf(out, "   Failures: %d\n", stat.FailureCount)

			if stat.LastRun != nil {
				fmt.Fprintf(out, "   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
			}
			if stat.LastError != "" {
				fmt.Fprintf(out, "   Last Error: %s\n", stat.LastError)
			}
			fmt.Fprintln(out)
		}

		printInfo(out, "Statistics cover jobs run by this process only")
		return nil
	})
}
