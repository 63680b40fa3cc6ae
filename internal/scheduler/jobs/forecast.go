package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

// ForecastRunner 예측 파이프라인 (forecast.Pipeline)
type ForecastRunner interface {
	Run(ctx context.Context) (*contracts.RunSummary, error)
}

// CacheInvalidator 예측이 갱신된 종목의 조회 캐시 삭제 (pkg/redis.Cache)
type CacheInvalidator interface {
	InvalidateTicker(ctx context.Context, ticker string) error
}

// ForecastJob runs the forecast pipeline daily
// ⭐ 재시도 없음: 재실행은 같은 날짜의 예측을 한 번 더 append 함
type ForecastJob struct {
	pipeline ForecastRunner
	cache    CacheInvalidator
	schedule string
	logger   *logger.Logger

	mu   sync.Mutex
	last *contracts.RunSummary
}

// NewForecastJob creates a new forecast job
func NewForecastJob(pipeline ForecastRunner, schedule string, log *logger.Logger) *ForecastJob {
	if schedule == "" {
		schedule = "0 0 19 * * *"
	}
	return &ForecastJob{
		pipeline: pipeline,
		schedule: schedule,
		logger:   log.WithField("job", "forecast_pipeline"),
	}
}

// WithCache sets the response cache to invalidate after a run
func (j *ForecastJob) WithCache(c CacheInvalidator) *ForecastJob {
	j.cache = c
	return j
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "forecast_pipeline"
}

// Schedule returns the cron schedule (7 PM daily by default)
func (j *ForecastJob) Schedule() string {
	return j.schedule
}

// MaxRetries never retries
func (j *ForecastJob) MaxRetries() int {
	return 0
}

// Run executes the forecast pipeline
// 종목이 모두 실패한 경우에만 작업 실패로 간주
func (j *ForecastJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled forecast pipeline")

	summary, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("forecast run: %w", err)
	}

	j.mu.Lock()
	j.last = summary
	j.mu.Unlock()

	j.invalidate(summary)

	j.logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"processed": len(summary.Processed),
		"skipped":   len(summary.Skipped),
		"failed":    len(summary.Failed),
		"cancelled": summary.Cancelled,
	}).Info("Scheduled forecast pipeline finished")

	if len(summary.Failed) > 0 && len(summary.Processed) == 0 {
		return fmt.Errorf("all %d attempted tickers failed", len(summary.Failed))
	}
	return nil
}

func (j *ForecastJob) invalidate(summary *contracts.RunSummary) {
	if j.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, o := range summary.Processed {
		if err := j.cache.InvalidateTicker(ctx, o.Ticker); err != nil {
			j.logger.WithError(err).WithField("ticker", o.Ticker).Warn("Failed to invalidate cache")
		}
	}
}

// LastSummary JSON of the most recent run summary
func (j *ForecastJob) LastSummary() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.last == nil {
		return ""
	}
	b, err := json.Marshal(j.last)
	if err != nil {
		return ""
	}
	return string(b)
}
