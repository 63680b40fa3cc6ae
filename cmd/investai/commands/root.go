package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	pipelineFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "investai",
	Short: "InvestAI - IBOVESPA 종목 LSTM 종가 예측",
	Long: `InvestAI Unified CLI

StatusInvest 스냅샷 수집, 종목별 LSTM 학습, 다중 스텝 종가 예측.

Usage:
  go run ./cmd/investai [command]

Examples:
  go run ./cmd/investai db migrate
  go run ./cmd/investai collect
  go run ./cmd/investai forecast run --tickers PETR4,VALE3
  go run ./cmd/investai serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancel cmd.Context()
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pipelineFile, "pipeline", "", "pipeline YAML (default: PIPELINE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
