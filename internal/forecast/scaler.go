package forecast

import (
	"fmt"
	"math"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// Scaler min-max 정규화 상태 (종목별, 실행 단위로만 유지)
// ⭐ 정제된 전체 시계열로 한 번만 fit
type Scaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FitScaler 값들의 min/max 로 Scaler 생성
func FitScaler(values []float64) (Scaler, error) {
	if len(values) == 0 {
		return Scaler{}, fmt.Errorf("fit scaler on empty series: %w", contracts.ErrInsufficientData)
	}

	s := Scaler{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Scaler{}, fmt.Errorf("fit scaler: non-finite value %v", v)
		}
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s, nil
}

// Degenerate 상수 시계열 (min == max)
func (s Scaler) Degenerate() bool {
	return s.Max == s.Min
}

// Transform 값 → [0, 1]. 상수 시계열이면 0
func (s Scaler) Transform(v float64) float64 {
	if s.Degenerate() {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// TransformAll 전체 변환 (새 슬라이스)
func (s Scaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}
	return out
}

// Invert [0, 1] → 원래 가격. 상수 시계열이면 그 상수
func (s Scaler) Invert(n float64) float64 {
	if s.Degenerate() {
		return s.Min
	}
	return n*(s.Max-s.Min) + s.Min
}
