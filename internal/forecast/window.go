package forecast

import (
	"github.com/RBaltar/InvestAi/internal/contracts"
)

// WindowSet 지도학습용 슬라이딩 윈도우 묶음
// Inputs[k] 는 lookback 길이, Targets[k] 는 그 다음 값
type WindowSet struct {
	Lookback int
	Inputs   [][]float64
	Targets  []float64
}

// Len 윈도우 수
func (w *WindowSet) Len() int {
	return len(w.Targets)
}

// Clean 결측값 정제
// 선행 결측은 버리고, 이후 결측은 직전 유효값으로 forward-fill
func Clean(series *contracts.PriceSeries) []float64 {
	if series.Len() == 0 {
		return nil
	}

	values := make([]float64, 0, len(series.Points))
	var last float64
	seen := false
	for _, p := range series.Points {
		if p.Valid {
			last = p.Close
			seen = true
		}
		if !seen {
			continue
		}
		values = append(values, last)
	}
	return values
}

// BuildWindows stride 1 슬라이딩 윈도우 생성
// len(values) <= lookback 이면 (nil, false)
// 윈도우 i 는 values[i-lookback:i] 로 values[i] 를 예측 (i ∈ [lookback, len))
func BuildWindows(values []float64, lookback int) (*WindowSet, bool) {
	if lookback < 1 || len(values) <= lookback {
		return nil, false
	}

	n := len(values) - lookback
	ws := &WindowSet{
		Lookback: lookback,
		Inputs:   make([][]float64, n),
		Targets:  make([]float64, n),
	}
	for k := 0; k < n; k++ {
		i := k + lookback
		in := make([]float64, lookback)
		copy(in, values[i-lookback:i])
		ws.Inputs[k] = in
		ws.Targets[k] = values[i]
	}
	return ws, true
}

// TrailingWindow 마지막 lookback 개 값 (예측 입력)
func TrailingWindow(values []float64, lookback int) ([]float64, bool) {
	if lookback < 1 || len(values) < lookback {
		return nil, false
	}
	out := make([]float64, lookback)
	copy(out, values[len(values)-lookback:])
	return out, true
}
