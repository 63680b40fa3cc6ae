package logger_test

import (
	"errors"

	"github.com/RBaltar/InvestAi/pkg/config"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Info("Application started")
	log.Infof("Forecasting %d tickers", 10)

	log.WithField("ticker", "PETR4").
		WithError(errors.New("connection refused")).
		Error("load series failed")
}
