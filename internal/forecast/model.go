package forecast

import (
	"hash/fnv"
	"time"
)

// Model 시계열 회귀 모델
// ⭐ 종목마다 새 인스턴스 (가중치 공유 금지)
type Model interface {
	// Train 윈도우/타깃으로 학습. 빈 입력은 ErrModelUsage
	Train(inputs [][]float64, targets []float64) (TrainReport, error)
	// Predict 학습 전 호출 또는 잘못된 shape 은 ErrModelUsage
	Predict(inputs [][]float64) ([]float64, error)
}

// TrainReport 학습 결과 요약
type TrainReport struct {
	Epochs   int           `json:"epochs"`
	Samples  int           `json:"samples"`
	Loss     float64       `json:"loss"` // 마지막 epoch 평균 MSE (정규화 스케일)
	Duration time.Duration `json:"duration"`
}

// ModelFactory 종목별 새 모델 생성
type ModelFactory func(ticker string) Model

// NewLSTMFactory 종목별 seed 를 파생해 LSTM 모델을 만드는 팩토리
// Seed 가 0 이 아니면 같은 종목은 항상 같은 seed 를 받음
func NewLSTMFactory(cfg LSTMConfig) ModelFactory {
	return func(ticker string) Model {
		c := cfg
		if c.Seed != 0 {
			c.Seed = tickerSeed(c.Seed, ticker)
		}
		return NewLSTMModel(c)
	}
}

func tickerSeed(base int64, ticker string) int64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	s := base ^ int64(h.Sum64()&0x7fffffffffffffff)
	if s == 0 {
		s = base
	}
	return s
}
