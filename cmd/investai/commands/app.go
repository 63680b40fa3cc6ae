package commands

import (
	"fmt"
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/internal/external/statusinvest"
	"github.com/RBaltar/InvestAi/internal/forecast"
	"github.com/RBaltar/InvestAi/internal/pipelineconfig"
	"github.com/RBaltar/InvestAi/internal/runlog"
	"github.com/RBaltar/InvestAi/internal/s0_data"
	"github.com/RBaltar/InvestAi/internal/s0_data/collector"
	"github.com/RBaltar/InvestAi/internal/scheduler"
	"github.com/RBaltar/InvestAi/internal/scheduler/jobs"
	"github.com/RBaltar/InvestAi/pkg/config"
	"github.com/RBaltar/InvestAi/pkg/database"
	"github.com/RBaltar/InvestAi/pkg/httputil"
	"github.com/RBaltar/InvestAi/pkg/logger"
	"github.com/RBaltar/InvestAi/pkg/metrics"
	"github.com/RBaltar/InvestAi/pkg/redis"
)

// app 명령어 공통 의존성
// ⭐ SSOT: 컴포넌트 조립은 이 파일에서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	cache    *redis.Cache
	metrics  *metrics.Recorder
	pipeline *pipelineconfig.Config

	dataRepo     *s0_data.Repository
	forecastRepo *forecast.Repository
}

// newApp loads config, connects to PostgreSQL and (optionally) Redis
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if pipelineFile != "" {
		cfg.PipelineConfigPath = pipelineFile
	}

	log := logger.New(cfg)

	pcfg, _, err := pipelineconfig.Load(cfg.PipelineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	if snap, err := pipelineconfig.NewSnapshot(pcfg); err == nil {
		log.WithFields(map[string]interface{}{
			"config_name": snap.ConfigName,
			"config_hash": snap.ConfigHash,
		}).Debug("Pipeline config loaded")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		// 캐시 없이도 동작
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		rc = redis.Disabled()
	}

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        rc,
		cache:        redis.NewCache(rc, "investai"),
		metrics:      metrics.New(),
		pipeline:     pcfg,
		dataRepo:     s0_data.NewRepository(db.Pool, db.QueryTimeout, log.Component("s0_data")),
		forecastRepo: forecast.NewRepository(db.Pool, db.QueryTimeout, log.Component("forecast_store")),
	}, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

// newPipeline builds the forecast orchestrator from the loaded pipeline config
// override 는 CLI 플래그 반영용 (nil 허용)
func (a *app) newPipeline(pub contracts.RunPublisher, override func(*forecast.PipelineConfig)) *forecast.Pipeline {
	pcfg := a.pipeline.ToPipelineConfig()
	if override != nil {
		override(&pcfg)
	}

	p := forecast.NewPipeline(
		a.dataRepo,
		a.forecastRepo,
		forecast.NewLSTMFactory(a.pipeline.ToLSTMConfig()),
		pcfg,
		a.log.Component("forecast"),
	).WithMetrics(a.metrics)
	if pub != nil {
		p = p.WithPublisher(pub)
	}
	return p
}

// newCollector builds the StatusInvest snapshot collector
func (a *app) newCollector() *collector.Collector {
	httpClient := httputil.NewWithTimeout(a.log, a.cfg.Collector.Timeout).
		WithRetry(2, time.Second).
		WithRateLimit(a.cfg.Collector.RequestsPerSec).
		WithHeader("User-Agent", a.cfg.Collector.UserAgent)

	client := statusinvest.NewClient(httpClient, a.cfg.Collector.BaseURL, a.log)
	return collector.NewCollector(client, a.dataRepo, a.log).WithMetrics(a.metrics)
}

// newScheduler registers the collection and forecast jobs
// 반환된 Recorder 는 호출자가 Close
func (a *app) newScheduler(pipeline *forecast.Pipeline) (*scheduler.Scheduler, runlog.Recorder, error) {
	rec, err := runlog.Open(a.cfg.RunLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}

	sched := scheduler.New(a.log).
		WithRecorder(rec).
		WithMetrics(a.metrics).
		WithRetry(3, a.cfg.Scheduler.RetryDelay)

	collectJob := jobs.NewDataCollectionJob(
		a.newCollector(),
		a.cfg.Collector.Tickers,
		a.cfg.Collector.Workers,
		a.cfg.Scheduler.CollectSchedule,
		a.log,
	)
	forecastJob := jobs.NewForecastJob(pipeline, a.cfg.Scheduler.ForecastSchedule, a.log).
		WithCache(a.cache)

	for _, job := range []scheduler.Job{collectJob, forecastJob} {
		if err := sched.AddJob(job); err != nil {
			rec.Close()
			return nil, nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	return sched, rec, nil
}
