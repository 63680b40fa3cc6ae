package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/internal/s0_data/collector"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

type fakeRunner struct {
	summary *contracts.RunSummary
	err     error
}

func (f *fakeRunner) Run(ctx context.Context) (*contracts.RunSummary, error) {
	return f.summary, f.err
}

type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) InvalidateTicker(ctx context.Context, ticker string) error {
	f.invalidated = append(f.invalidated, ticker)
	return nil
}

func outcome(ticker string, status contracts.OutcomeStatus) contracts.TickerOutcome {
	return contracts.TickerOutcome{Ticker: ticker, Status: status}
}

func TestForecastJob(t *testing.T) {
	summary := &contracts.RunSummary{RunID: "run-1"}
	summary.Add(outcome("PETR4", contracts.OutcomeProcessed))
	summary.Add(outcome("VALE3", contracts.OutcomeSkipped))
	summary.Add(outcome("ITUB4", contracts.OutcomeFailed))

	cache := &fakeCache{}
	job := NewForecastJob(&fakeRunner{summary: summary}, "", logger.Nop()).WithCache(cache)

	assert.Equal(t, "forecast_pipeline", job.Name())
	assert.Equal(t, "0 0 19 * * *", job.Schedule())
	assert.Equal(t, 0, job.MaxRetries())
	assert.Empty(t, job.LastSummary())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"PETR4"}, cache.invalidated)

	var decoded contracts.RunSummary
	require.NoError(t, json.Unmarshal([]byte(job.LastSummary()), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Failed, 1)
}

func TestForecastJob_Failures(t *testing.T) {
	allFailed := &contracts.RunSummary{}
	allFailed.Add(outcome("A", contracts.OutcomeFailed))
	allFailed.Add(outcome("B", contracts.OutcomeSkipped))

	onlySkipped := &contracts.RunSummary{}
	onlySkipped.Add(outcome("B", contracts.OutcomeSkipped))

	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr bool
	}{
		{"discovery error", &fakeRunner{err: contracts.ErrStorageUnavailable}, true},
		{"every attempted ticker failed", &fakeRunner{summary: allFailed}, true},
		{"only skips", &fakeRunner{summary: onlySkipped}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewForecastJob(tt.runner, "0 30 18 * * *", logger.Nop()).Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeCollector struct {
	gotTickers []string
	gotCfg     collector.Config
	results    []collector.FetchResult
	err        error
}

func (f *fakeCollector) Collect(ctx context.Context, tickers []string, cfg collector.Config) ([]collector.FetchResult, error) {
	f.gotTickers = tickers
	f.gotCfg = cfg
	return f.results, f.err
}

func TestDataCollectionJob(t *testing.T) {
	col := &fakeCollector{results: []collector.FetchResult{
		{Ticker: "PETR4", HasClose: true},
		{Ticker: "VALE3", Error: errors.New("503")},
	}}
	job := NewDataCollectionJob(col, []string{"PETR4", "VALE3"}, 2, "", logger.Nop())

	assert.Equal(t, "data_collection", job.Name())
	assert.Equal(t, "0 0 * * * *", job.Schedule())
	assert.Equal(t, 3, job.MaxRetries())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"PETR4", "VALE3"}, col.gotTickers)
	assert.Equal(t, 2, col.gotCfg.Workers)
	assert.JSONEq(t, `{"collected":1,"failed":1}`, job.LastSummary())
}

func TestDataCollectionJob_Error(t *testing.T) {
	col := &fakeCollector{err: errors.New("all 2 tickers failed")}
	job := NewDataCollectionJob(col, []string{"A", "B"}, 1, "@hourly", logger.Nop())

	assert.Error(t, job.Run(context.Background()))
	assert.JSONEq(t, `{"collected":0,"failed":0}`, job.LastSummary())
}
