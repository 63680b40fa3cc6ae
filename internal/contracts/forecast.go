package contracts

import "time"

// ForecastRecord 예측 결과 한 건 (analytics.price_predictions)
// Date = 실행일 + offset, offset ∈ [1, horizon]
type ForecastRecord struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	PredictedPrice float64   `json:"predicted_price"`
	RunID          string    `json:"run_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// PredictionPoint 조회 API 용 (date, predicted_price)
type PredictionPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// ComparisonPoint 예측값 vs 실제 종가
// RealPrice 는 해당 날짜 실제값이 아직 없으면 nil
type ComparisonPoint struct {
	Date           string   `json:"date"`
	PredictedPrice float64  `json:"predicted_price"`
	RealPrice      *float64 `json:"real_price"`
}

// ForecastMode 다중 스텝 예측 방식
type ForecastMode string

const (
	// ModeSameWindow 모든 스텝에 동일한 마지막 lookback 윈도우 사용 (기본값)
	ModeSameWindow ForecastMode = "same_window"
	// ModeAutoregressive 예측값을 윈도우에 밀어 넣어 다음 스텝 예측
	ModeAutoregressive ForecastMode = "autoregressive"
	// ModeLastWindows 학습 윈도우 중 마지막 horizon 개를 예측 (레거시 동작)
	ModeLastWindows ForecastMode = "last_windows"
)

// Valid 알려진 모드인지
func (m ForecastMode) Valid() bool {
	switch m {
	case ModeSameWindow, ModeAutoregressive, ModeLastWindows:
		return true
	}
	return false
}
