package contracts

import "time"

// TickerStage 종목 처리 상태 머신의 단계
//
// 흐름:
//   Discovered → Loaded → Windowed → Trained → Forecasted → Persisted
//   (Skipped / Failed 는 어느 단계에서든 종료 상태)
type TickerStage string

const (
	StageDiscover TickerStage = "discover"
	StageLoad     TickerStage = "load"
	StageWindow   TickerStage = "window"
	StageTrain    TickerStage = "train"
	StageForecast TickerStage = "forecast"
	StagePersist  TickerStage = "persist"
)

// OutcomeStatus 종목 처리 결과
type OutcomeStatus string

const (
	OutcomeProcessed OutcomeStatus = "processed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// TickerOutcome 종목 하나의 처리 결과
type TickerOutcome struct {
	Ticker   string        `json:"ticker"`
	Status   OutcomeStatus `json:"status"`
	Stage    TickerStage   `json:"stage,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Records  int           `json:"records"`
	TrainMSE float64       `json:"train_mse,omitempty"`
	Duration time.Duration `json:"duration"`

	// Err skip/실패 원인 (*StageError); 직렬화하지 않음
	Err error `json:"-"`
}

// RunSummary 실행 한 번의 요약
// ⭐ 실행은 항상 완료되며 결과는 이 요약으로 보고됨
type RunSummary struct {
	RunID      string          `json:"run_id"`
	RunDate    time.Time       `json:"run_date"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Cancelled  bool            `json:"cancelled"`
	Processed  []TickerOutcome `json:"processed"`
	Skipped    []TickerOutcome `json:"skipped"`
	Failed     []TickerOutcome `json:"failed"`
}

// Add 결과를 상태별 목록에 추가
func (s *RunSummary) Add(o TickerOutcome) {
	switch o.Status {
	case OutcomeProcessed:
		s.Processed = append(s.Processed, o)
	case OutcomeSkipped:
		s.Skipped = append(s.Skipped, o)
	default:
		s.Failed = append(s.Failed, o)
	}
}

// Total 처리된 종목 총 수
func (s *RunSummary) Total() int {
	return len(s.Processed) + len(s.Skipped) + len(s.Failed)
}

// Records 저장된 예측 총 건수
func (s *RunSummary) Records() int {
	n := 0
	for _, o := range s.Processed {
		n += o.Records
	}
	return n
}

// Duration 실행 소요 시간
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
