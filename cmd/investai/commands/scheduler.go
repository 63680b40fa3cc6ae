package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RBaltar/InvestAi/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start    - 스케줄러 시작
  list     - 등록된 작업 목록
  run      - 특정 작업 즉시 실행 (완료까지 대기)
  history  - 작업 실행 기록 (RUNLOG_PATH)

Example:
  go run ./cmd/investai scheduler start
  go run ./cmd/investai scheduler run forecast_pipeline
  go run ./cmd/investai scheduler history --job data_collection`,
}

var (
	historyJob   string
	historyLimit int
)

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- data_collection: 매시 정각 (COLLECT_SCHEDULE), 실패 시 3회 재시도
- forecast_pipeline: 매일 19:00 (FORECAST_SCHEDULE), 재시도 없음

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

	schedulerHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "작업 실행 기록 조회",
		RunE:  showHistory,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerHistoryCmd)

	schedulerHistoryCmd.Flags().StringVar(&historyJob, "job", "", "작업 이름 (기본: 전체)")
	schedulerHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "최대 건수")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== InvestAI Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, rec, err := a.newScheduler(a.newPipeline(nil, nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rec.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

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

	sched, rec, err := a.newScheduler(a.newPipeline(nil, nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rec.Close()

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		fmt.Printf("  - %-18s schedule=%q retries=%d\n", name, st.Schedule, st.MaxRetries)
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, rec, err := a.newScheduler(a.newPipeline(nil, nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rec.Close()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunNow(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, result.Attempts, result.Error)
	}

	fmt.Printf("✅ %s completed in %v (%d attempts)\n", jobName, result.Duration.Round(time.Millisecond), result.Attempts)
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.RunLogPath == "" {
		fmt.Println("Run log disabled (set RUNLOG_PATH)")
		return nil
	}

	_, rec, err := a.newScheduler(a.newPipeline(nil, nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rec.Close()

	entries, err := rec.Recent(cmd.Context(), historyJob, historyLimit)
	if err != nil {
		return fmt.Errorf("read run log: %w", err)
	}

	for _, e := range entries {
		status := "✅"
		if !e.Success {
			status = "❌"
		}
		fmt.Printf("%s %-18s %s  %8v  attempts=%d", status, e.Job,
			e.StartedAt.Format("2006-01-02 15:04:05"), e.Duration().Round(time.Millisecond), e.Attempts)
		if e.Error != "" {
			fmt.Printf("  error=%s", e.Error)
		}
		fmt.Println()
		if e.Summary != "" && verbose {
			fmt.Printf("    %s\n", e.Summary)
		}
	}
	return nil
}
