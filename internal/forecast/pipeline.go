package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// Metrics 파이프라인 계측 (pkg/metrics.Recorder 가 구현)
type Metrics interface {
	RecordTickerOutcome(outcome string)
	RecordRun(d time.Duration)
	RecordTraining(d time.Duration)
	RecordPersisted(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordTickerOutcome(string)   {}
func (nopMetrics) RecordRun(time.Duration)      {}
func (nopMetrics) RecordTraining(time.Duration) {}
func (nopMetrics) RecordPersisted(int)          {}

// PipelineConfig 오케스트레이터 설정
type PipelineConfig struct {
	Lookback int
	Horizon  int
	Mode     contracts.ForecastMode
	// Workers 1 이하면 순차 실행
	Workers int
	// Tickers 비어 있으면 저장소에서 discover
	Tickers []string
}

// DefaultPipelineConfig 기본 설정 (lookback 60, horizon 10, same_window, 순차)
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Lookback: 60,
		Horizon:  10,
		Mode:     contracts.ModeSameWindow,
		Workers:  1,
	}
}

// Pipeline 종목별 학습/예측/저장 오케스트레이터
// ⭐ 종목 하나의 실패는 실행 전체를 중단시키지 않음
type Pipeline struct {
	series    contracts.SeriesStore
	store     contracts.ForecastStore
	newModel  ModelFactory
	cfg       PipelineConfig
	metrics   Metrics
	publisher contracts.RunPublisher
	now       func() time.Time
	log       zerolog.Logger
}

// NewPipeline 새 파이프라인 생성
func NewPipeline(series contracts.SeriesStore, store contracts.ForecastStore, factory ModelFactory, cfg PipelineConfig, log zerolog.Logger) *Pipeline {
	if cfg.Lookback < 1 {
		cfg.Lookback = 60
	}
	if cfg.Horizon < 1 {
		cfg.Horizon = 10
	}
	if cfg.Mode == "" {
		cfg.Mode = contracts.ModeSameWindow
	}
	return &Pipeline{
		series:   series,
		store:    store,
		newModel: factory,
		cfg:      cfg,
		metrics:  nopMetrics{},
		now:      time.Now,
		log:      log.With().Str("component", "forecast.pipeline").Logger(),
	}
}

// WithMetrics 계측기 설정
func (p *Pipeline) WithMetrics(m Metrics) *Pipeline {
	if m != nil {
		p.metrics = m
	}
	return p
}

// WithPublisher 실행 요약 구독자 설정
func (p *Pipeline) WithPublisher(pub contracts.RunPublisher) *Pipeline {
	p.publisher = pub
	return p
}

// WithClock 실행일 계산용 시계 (테스트)
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run 전체 종목 실행
// discover 실패 시에만 에러 반환, 그 외에는 항상 요약을 반환
func (p *Pipeline) Run(ctx context.Context) (*contracts.RunSummary, error) {
	started := p.now()
	summary := &contracts.RunSummary{
		RunID:     uuid.NewString(),
		RunDate:   contracts.TruncateDay(started),
		StartedAt: started,
	}

	tickers, err := p.discover(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("ticker discovery failed")
		return nil, fmt.Errorf("discover tickers: %w", err)
	}

	p.log.Info().
		Str("run_id", summary.RunID).
		Str("run_date", summary.RunDate.Format(contracts.DateLayout)).
		Int("tickers", len(tickers)).
		Int("lookback", p.cfg.Lookback).
		Int("horizon", p.cfg.Horizon).
		Str("mode", string(p.cfg.Mode)).
		Int("workers", p.cfg.Workers).
		Msg("forecast run started")

	var outcomes []contracts.TickerOutcome
	if p.cfg.Workers <= 1 {
		outcomes = p.runSequential(ctx, summary, tickers)
	} else {
		outcomes = p.runPool(ctx, summary, tickers)
	}
	for _, o := range outcomes {
		summary.Add(o)
		p.metrics.RecordTickerOutcome(string(o.Status))
	}
	if len(outcomes) < len(tickers) {
		summary.Cancelled = true
		p.log.Warn().
			Int("remaining", len(tickers)-len(outcomes)).
			Msg("forecast run cancelled between tickers")
	}

	summary.FinishedAt = p.now()
	p.metrics.RecordRun(summary.Duration())

	p.log.Info().
		Str("run_id", summary.RunID).
		Int("processed", len(summary.Processed)).
		Int("skipped", len(summary.Skipped)).
		Int("failed", len(summary.Failed)).
		Int("records", summary.Records()).
		Dur("duration", summary.Duration()).
		Msg("forecast run completed")

	if p.publisher != nil {
		p.publisher.PublishRun(summary)
	}
	return summary, nil
}

func (p *Pipeline) discover(ctx context.Context) ([]string, error) {
	if len(p.cfg.Tickers) > 0 {
		out := make([]string, len(p.cfg.Tickers))
		copy(out, p.cfg.Tickers)
		return out, nil
	}
	return p.series.ListTickers(ctx)
}

// runSequential 종목 사이마다 취소 여부 확인
func (p *Pipeline) runSequential(ctx context.Context, summary *contracts.RunSummary, tickers []string) []contracts.TickerOutcome {
	outcomes := make([]contracts.TickerOutcome, 0, len(tickers))
	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
			return outcomes
		default:
		}
		outcomes = append(outcomes, p.RunTicker(ctx, summary.RunID, summary.RunDate, ticker))
	}
	return outcomes
}

// runPool bounded worker pool; 결과 순서는 입력 순서를 유지
func (p *Pipeline) runPool(ctx context.Context, summary *contracts.RunSummary, tickers []string) []contracts.TickerOutcome {
	type job struct {
		idx    int
		ticker string
	}

	results := make([]*contracts.TickerOutcome, len(tickers))
	jobCh := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				o := p.RunTicker(ctx, summary.RunID, summary.RunDate, j.ticker)
				results[j.idx] = &o
			}
		}()
	}

dispatch:
	for i, ticker := range tickers {
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobCh <- job{idx: i, ticker: ticker}:
		}
	}
	close(jobCh)
	wg.Wait()

	outcomes := make([]contracts.TickerOutcome, 0, len(tickers))
	for _, o := range results {
		if o != nil {
			outcomes = append(outcomes, *o)
		}
	}
	return outcomes
}

// RunTicker 종목 하나를 끝까지 처리
// 시작된 종목은 취소와 무관하게 끝까지 진행 (저장소 timeout 은 유지)
func (p *Pipeline) RunTicker(ctx context.Context, runID string, runDate time.Time, ticker string) contracts.TickerOutcome {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := p.log.With().Str("ticker", ticker).Logger()

	finish := func(stage contracts.TickerStage, err error) contracts.TickerOutcome {
		o := contracts.TickerOutcome{
			Ticker:   ticker,
			Stage:    stage,
			Reason:   err.Error(),
			Duration: time.Since(start),
			Err:      contracts.NewStageError(ticker, stage, err),
		}
		if contracts.IsSkip(err) {
			o.Status = contracts.OutcomeSkipped
			log.Warn().Str("stage", string(stage)).Str("reason", o.Reason).Msg("ticker skipped")
		} else {
			o.Status = contracts.OutcomeFailed
			log.Error().Err(o.Err).Str("stage", string(stage)).Msg("ticker failed")
		}
		return o
	}

	// 1. Load
	series, err := p.series.LoadSeries(ctx, ticker)
	if err != nil {
		return finish(contracts.StageLoad, err)
	}
	if series.Len() == 0 {
		return finish(contracts.StageLoad, contracts.ErrDataAbsent)
	}
	if series.Len() <= p.cfg.Lookback {
		return finish(contracts.StageLoad, fmt.Errorf("%d rows, need more than %d: %w", series.Len(), p.cfg.Lookback, contracts.ErrInsufficientData))
	}

	// 2. Clean + scale + window
	values := Clean(series)
	scaler, err := FitScaler(values)
	if err != nil {
		return finish(contracts.StageWindow, err)
	}
	scaled := scaler.TransformAll(values)
	windows, ok := BuildWindows(scaled, p.cfg.Lookback)
	if !ok {
		return finish(contracts.StageWindow, fmt.Errorf("%d valid points, need more than %d: %w", len(values), p.cfg.Lookback, contracts.ErrInsufficientData))
	}
	log.Debug().
		Int("points", len(values)).
		Int("windows", windows.Len()).
		Float64("min", scaler.Min).
		Float64("max", scaler.Max).
		Msg("windows built")

	// 3. Train (fresh model)
	model := p.newModel(ticker)
	report, err := model.Train(windows.Inputs, windows.Targets)
	if err != nil {
		return finish(contracts.StageTrain, err)
	}
	p.metrics.RecordTraining(report.Duration)
	log.Debug().
		Int("epochs", report.Epochs).
		Float64("loss", report.Loss).
		Dur("duration", report.Duration).
		Msg("model trained")

	// 4. Forecast + invert
	preds, err := forecastHorizon(model, scaled, windows, p.cfg.Horizon, p.cfg.Mode)
	if err != nil {
		return finish(contracts.StageForecast, err)
	}
	records := make([]contracts.ForecastRecord, len(preds))
	for i, n := range preds {
		price := scaler.Invert(n)
		if !finite(price) {
			return finish(contracts.StageForecast, errors.New("non-finite prediction"))
		}
		records[i] = contracts.ForecastRecord{
			Ticker:         ticker,
			Date:           runDate.AddDate(0, 0, i+1),
			PredictedPrice: price,
			RunID:          runID,
		}
	}

	// 5. Persist
	if err := p.store.Append(ctx, ticker, records); err != nil {
		return finish(contracts.StagePersist, err)
	}
	p.metrics.RecordPersisted(len(records))

	o := contracts.TickerOutcome{
		Ticker:   ticker,
		Status:   contracts.OutcomeProcessed,
		Stage:    contracts.StagePersist,
		Records:  len(records),
		TrainMSE: report.Loss,
		Duration: time.Since(start),
	}
	log.Info().
		Int("records", o.Records).
		Float64("first_price", records[0].PredictedPrice).
		Dur("duration", o.Duration).
		Msg("ticker forecasted")
	return o
}
