package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/RBaltar/InvestAi/internal/api"
	"github.com/RBaltar/InvestAi/internal/api/handlers"
	"github.com/RBaltar/InvestAi/internal/api/stream"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작 (조회 전용)",
	Long: `REST API 서버를 시작합니다. 스케줄러 없이 저장된 데이터만 제공합니다.

Endpoints:
  GET  /health                       - Health check
  GET  /api/tickers                  - 수집된 종목 목록
  GET  /api/history/{ticker}         - 일별 종가 이력
  GET  /api/predictions/{ticker}     - 날짜별 최신 예측
  GET  /api/comparison/{ticker}      - 예측값 vs 실제 종가
  GET  /metrics                      - Prometheus
  GET  /ws/runs                      - 예측 실행 요약 (WebSocket, serve 모드)

Example:
  go run ./cmd/investai api
  go run ./cmd/investai api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== InvestAI API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	hub := stream.NewHub(a.log)
	go hub.Run(ctx)

	return serveHTTP(ctx, a, hub)
}

// newHandler builds the full route table
func newHandler(a *app, hub *stream.Hub) http.Handler {
	forecastHandler := handlers.NewForecastHandler(a.dataRepo, a.dataRepo, a.forecastRepo, a.log).
		WithCache(a.cache, a.cfg.Redis.CacheTTL)

	rec := a.metrics
	if !a.cfg.MetricsEnabled {
		rec = nil
	}
	return api.NewRouter(forecastHandler, hub, rec, a.log)
}

// serveHTTP blocks until ctx is cancelled
func serveHTTP(ctx context.Context, a *app, hub *stream.Hub) error {
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	server := api.New(a.cfg, a.log, newHandler(a, hub))

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
