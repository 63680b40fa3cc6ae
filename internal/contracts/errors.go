package contracts

import (
	"errors"
	"fmt"
)

// ⭐ SSOT: 파이프라인 에러 분류는 여기서만 정의

var (
	// ErrDataAbsent 종목 데이터가 한 건도 없음 (skip)
	ErrDataAbsent = errors.New("data absent")

	// ErrInsufficientData 정제 후 포인트가 lookback 이하 (skip)
	ErrInsufficientData = errors.New("insufficient data")

	// ErrStorageUnavailable 저장소 연결/조회 실패 (retry 후 실패 처리)
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrModelUsage 학습 전 예측, 빈 학습 입력, 잘못된 윈도우 shape
	ErrModelUsage = errors.New("model usage error")

	// ErrPersistence 예측 결과 저장 실패 (해당 종목만 실패)
	ErrPersistence = errors.New("persistence failure")
)

// StageError 종목 단위 실패 (어느 단계에서 왜)
type StageError struct {
	Ticker string
	Stage  TickerStage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Ticker, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError StageError 생성
func NewStageError(ticker string, stage TickerStage, err error) *StageError {
	return &StageError{Ticker: ticker, Stage: stage, Err: err}
}

// IsSkip skip 으로 분류되는 에러인지 (실패가 아님)
func IsSkip(err error) bool {
	return errors.Is(err, ErrDataAbsent) || errors.Is(err, ErrInsufficientData)
}
