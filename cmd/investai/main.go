package main

import (
	"os"

	"github.com/RBaltar/InvestAi/cmd/investai/commands"
)

// main is the entry point for the InvestAI CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/investai [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
