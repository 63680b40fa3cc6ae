package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

// Fetcher 종목 한 건의 스냅샷을 가져오는 소스 (statusinvest.Client)
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*contracts.HistoricalRow, error)
}

// Metrics 수집 계측
type Metrics interface {
	RecordCollected(status string)
}

type nopMetrics struct{}

func (nopMetrics) RecordCollected(string) {}

// Collector orchestrates snapshot collection for the watch list
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	fetcher Fetcher
	store   contracts.RowAppender
	metrics Metrics
	logger  *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance
func NewCollector(fetcher Fetcher, store contracts.RowAppender, log *logger.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		store:   store,
		metrics: nopMetrics{},
		logger:  log.WithField("module", "collector"),
	}
}

// WithMetrics sets the metrics sink
func (c *Collector) WithMetrics(m Metrics) *Collector {
	if m != nil {
		c.metrics = m
	}
	return c
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Ticker   string
	HasClose bool
	Error    error
}

// Collect 스냅샷 수집 후 종목별로 저장
// 한 종목의 실패는 다른 종목에 영향 없음; 모든 종목이 실패하면 에러 반환
func (c *Collector) Collect(ctx context.Context, tickers []string, cfg Config) ([]FetchResult, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to collect")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(tickers),
		"workers":      cfg.Workers,
	}).Info("Starting snapshot collection")

	start := time.Now()
	results := make([]FetchResult, 0, len(tickers))
	resultCh := make(chan FetchResult, len(tickers))
	tickerCh := make(chan string, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, tickerCh, resultCh)
		}(i)
	}

	for _, t := range tickers {
		tickerCh <- t
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	successCount := 0
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success":  successCount,
		"failed":   failCount,
		"total":    len(results),
		"duration": time.Since(start).String(),
	}).Info("Snapshot collection completed")

	if successCount == 0 {
		return results, fmt.Errorf("all %d tickers failed", failCount)
	}
	return results, nil
}

// worker processes snapshot fetching for tickers
func (c *Collector) worker(ctx context.Context, workerID int, tickerCh <-chan string, resultCh chan<- FetchResult) {
	for ticker := range tickerCh {
		select {
		case <-ctx.Done():
			c.metrics.RecordCollected("cancelled")
			resultCh <- FetchResult{Ticker: ticker, Error: ctx.Err()}
			continue
		default:
		}

		row, err := c.fetcher.Fetch(ctx, ticker)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Error("Failed to fetch snapshot")
			c.metrics.RecordCollected("fetch_error")
			resultCh <- FetchResult{Ticker: ticker, Error: err}
			continue
		}

		if err := c.store.AppendRows(ctx, []contracts.HistoricalRow{*row}); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Error("Failed to save snapshot")
			c.metrics.RecordCollected("store_error")
			resultCh <- FetchResult{Ticker: ticker, HasClose: row.Close != nil, Error: err}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"worker":    workerID,
			"ticker":    ticker,
			"has_close": row.Close != nil,
		}).Debug("Collected snapshot")

		c.metrics.RecordCollected("ok")
		resultCh <- FetchResult{Ticker: ticker, HasClose: row.Close != nil}
	}
}
