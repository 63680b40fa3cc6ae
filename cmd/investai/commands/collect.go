package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RBaltar/InvestAi/internal/s0_data/collector"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "StatusInvest 스냅샷 수집 (1회)",
	Long: `관심 종목의 StatusInvest 페이지를 스크랩해 data.historical_prices 에 추가합니다.

기본 종목: COLLECTOR_TICKERS (미설정 시 IBOVESPA 10종목)

Example:
  go run ./cmd/investai collect
  go run ./cmd/investai collect --tickers PETR4,VALE3 --workers 2`,
	RunE: runCollect,
}

var (
	collectTickers []string
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringSliceVar(&collectTickers, "tickers", nil, "수집할 종목 (콤마 구분)")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "동시 수집 워커 수 (기본: COLLECTOR_WORKERS)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	tickers := a.cfg.Collector.Tickers
	if len(collectTickers) > 0 {
		tickers = upperAll(collectTickers)
	}
	workers := a.cfg.Collector.Workers
	if collectWorkers > 0 {
		workers = collectWorkers
	}

	fmt.Printf("Collecting %d tickers (%d workers)...\n", len(tickers), workers)

	results, collectErr := a.newCollector().Collect(cmd.Context(), tickers, collector.Config{Workers: workers})
	for _, r := range results {
		switch {
		case r.Error != nil:
			fmt.Printf("  ❌ %-6s %v\n", r.Ticker, r.Error)
		case !r.HasClose:
			fmt.Printf("  ⚠️  %-6s stored without close\n", r.Ticker)
		default:
			fmt.Printf("  ✅ %-6s\n", r.Ticker)
		}
	}

	if collectErr != nil {
		return fmt.Errorf("collect: %w", collectErr)
	}
	return nil
}

func upperAll(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
