package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/RBaltar/InvestAi/internal/s0_data/collector"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

// SnapshotCollector 관심 종목 스냅샷 수집 (collector.Collector)
type SnapshotCollector interface {
	Collect(ctx context.Context, tickers []string, cfg collector.Config) ([]collector.FetchResult, error)
}

// DataCollectionJob collects StatusInvest snapshots on schedule
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataCollectionJob struct {
	collector SnapshotCollector
	tickers   []string
	workers   int
	schedule  string
	logger    *logger.Logger

	mu      sync.Mutex
	summary string
}

// NewDataCollectionJob creates a new data collection job
func NewDataCollectionJob(col SnapshotCollector, tickers []string, workers int, schedule string, log *logger.Logger) *DataCollectionJob {
	if schedule == "" {
		schedule = "0 0 * * * *"
	}
	return &DataCollectionJob{
		collector: col,
		tickers:   tickers,
		workers:   workers,
		schedule:  schedule,
		logger:    log.WithField("job", "data_collection"),
	}
}

// Name returns the job name
func (j *DataCollectionJob) Name() string {
	return "data_collection"
}

// Schedule returns the cron schedule (hourly by default)
func (j *DataCollectionJob) Schedule() string {
	return j.schedule
}

// MaxRetries retries a failed collection three times
func (j *DataCollectionJob) MaxRetries() int {
	return 3
}

// Run executes the data collection
func (j *DataCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data collection")

	results, err := j.collector.Collect(ctx, j.tickers, collector.Config{Workers: j.workers})

	ok, failed := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			ok++
		}
	}

	j.mu.Lock()
	j.summary = fmt.Sprintf(`{"collected":%d,"failed":%d}`, ok, failed)
	j.mu.Unlock()

	if err != nil {
		return fmt.Errorf("collect snapshots: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"collected": ok,
		"failed":    failed,
	}).Info("Scheduled data collection completed")
	return nil
}

// LastSummary counts of the most recent collection
func (j *DataCollectionJob) LastSummary() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summary
}
