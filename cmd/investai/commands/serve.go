package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RBaltar/InvestAi/internal/api/stream"
)

// serveCmd runs API, scheduler and run stream in one process
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 통합 실행",
	Long: `API 서버와 스케줄러를 한 프로세스에서 실행합니다.

예측 실행이 끝날 때마다 요약이 /ws/runs 구독자에게 전달되고
처리된 종목의 API 캐시가 무효화됩니다.

Example:
  go run ./cmd/investai serve
  go run ./cmd/investai serve --port 8090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== InvestAI ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	hub := stream.NewHub(a.log)
	go hub.Run(ctx)

	sched, rec, err := a.newScheduler(a.newPipeline(hub, nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rec.Close()

	sched.Start()
	defer sched.Stop()
	printJobs(sched)

	return serveHTTP(ctx, a, hub)
}
