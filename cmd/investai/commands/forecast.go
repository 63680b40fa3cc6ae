package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/internal/forecast"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "LSTM 종가 예측",
	Long: `종목별로 새 LSTM 을 학습하고 horizon 일 앞의 종가를 예측합니다.

명령어:
  run      전체 파이프라인 실행 (discover → load → window → train → forecast → persist)
  predict  저장된 예측 조회
  compare  예측값 vs 실제 종가

Modes:
  same_window     마지막 lookback 윈도우를 모든 스텝에 사용 (기본)
  autoregressive  예측값을 윈도우에 넣어 다음 스텝 예측
  last_windows    마지막 horizon 개 학습 윈도우 예측`,
}

var (
	runTickers []string
	runMode    string
	runHorizon int
	runWorkers int
)

var forecastRunCmd = &cobra.Command{
	Use:   "run",
	Short: "예측 파이프라인 1회 실행",
	Long: `저장소의 모든 종목(또는 --tickers)에 대해 예측을 실행합니다.

한 종목의 실패/스킵은 다른 종목에 영향을 주지 않으며,
Ctrl+C 시 진행 중인 종목만 마치고 중단합니다.

Example:
  go run ./cmd/investai forecast run
  go run ./cmd/investai forecast run --tickers PETR4,VALE3 --mode autoregressive --horizon 5`,
	RunE: runForecastRun,
}

var forecastPredictCmd = &cobra.Command{
	Use:   "predict [ticker]",
	Short: "저장된 예측 조회 (날짜별 최신)",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecastPredict,
}

var forecastCompareCmd = &cobra.Command{
	Use:   "compare [ticker]",
	Short: "예측값과 실제 종가 비교",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecastCompare,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.AddCommand(forecastRunCmd)
	forecastCmd.AddCommand(forecastPredictCmd)
	forecastCmd.AddCommand(forecastCompareCmd)

	forecastRunCmd.Flags().StringSliceVar(&runTickers, "tickers", nil, "대상 종목 (기본: 저장소 전체)")
	forecastRunCmd.Flags().StringVar(&runMode, "mode", "", "same_window | autoregressive | last_windows")
	forecastRunCmd.Flags().IntVar(&runHorizon, "horizon", 0, "예측 일수 (기본: pipeline.yaml)")
	forecastRunCmd.Flags().IntVar(&runWorkers, "workers", 0, "동시 학습 종목 수 (기본: pipeline.yaml)")
}

func runForecastRun(cmd *cobra.Command, args []string) error {
	mode := contracts.ForecastMode(runMode)
	if runMode != "" && !mode.Valid() {
		return fmt.Errorf("invalid --mode %q (valid: same_window, autoregressive, last_windows)", runMode)
	}
	if runHorizon < 0 || runWorkers < 0 {
		return fmt.Errorf("--horizon and --workers must be positive")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	pipeline := a.newPipeline(nil, func(cfg *forecast.PipelineConfig) {
		if len(runTickers) > 0 {
			cfg.Tickers = upperAll(runTickers)
		}
		if runMode != "" {
			cfg.Mode = mode
		}
		if runHorizon > 0 {
			cfg.Horizon = runHorizon
		}
		if runWorkers > 0 {
			cfg.Workers = runWorkers
		}
	})

	summary, err := pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("forecast run: %w", err)
	}

	printSummary(summary)

	// 부분 결과는 저장됨; 남은 종목만 건너뜀
	if summary.Cancelled {
		return fmt.Errorf("run cancelled after %d tickers", summary.Total())
	}
	return nil
}

func printSummary(s *contracts.RunSummary) {
	fmt.Printf("\n=== Run %s (%s, %v) ===\n", s.RunID, s.RunDate.Format(contracts.DateLayout), s.Duration().Round(time.Millisecond))
	for _, o := range s.Processed {
		fmt.Printf("  ✅ %-6s %d records (mse %.6f, %v)\n", o.Ticker, o.Records, o.TrainMSE, o.Duration.Round(time.Millisecond))
	}
	for _, o := range s.Skipped {
		fmt.Printf("  ⏭️  %-6s skipped at %s: %s\n", o.Ticker, o.Stage, o.Reason)
	}
	for _, o := range s.Failed {
		fmt.Printf("  ❌ %-6s failed at %s: %s\n", o.Ticker, o.Stage, o.Reason)
	}
	fmt.Printf("\nProcessed: %d  Skipped: %d  Failed: %d  Records: %d\n",
		len(s.Processed), len(s.Skipped), len(s.Failed), s.Records())
}

func runForecastPredict(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	points, err := a.forecastRepo.GetPredictions(cmd.Context(), ticker)
	if err != nil {
		return fmt.Errorf("get predictions: %w", err)
	}
	if len(points) == 0 {
		fmt.Printf("No predictions for %s\n", ticker)
		return nil
	}

	fmt.Printf("%s predictions:\n", ticker)
	for _, p := range points {
		fmt.Printf("  %s  %10.2f\n", p.Date, p.PredictedPrice)
	}
	return nil
}

func runForecastCompare(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	points, err := a.forecastRepo.GetComparison(cmd.Context(), ticker)
	if err != nil {
		return fmt.Errorf("get comparison: %w", err)
	}
	if len(points) == 0 {
		fmt.Printf("No predictions for %s\n", ticker)
		return nil
	}

	fmt.Printf("%s  %-10s %10s %10s %8s\n", ticker, "date", "predicted", "real", "error")
	for _, p := range points {
		if p.RealPrice == nil {
			fmt.Printf("      %-10s %10.2f %10s %8s\n", p.Date, p.PredictedPrice, "-", "-")
			continue
		}
		errPct := (p.PredictedPrice - *p.RealPrice) / *p.RealPrice * 100
		fmt.Printf("      %-10s %10.2f %10.2f %7.2f%%\n", p.Date, p.PredictedPrice, *p.RealPrice, errPct)
	}
	return nil
}
