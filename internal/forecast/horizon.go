package forecast

import (
	"fmt"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// forecastHorizon 정규화 스케일에서 horizon 스텝 예측
//
//	same_window:    마지막 lookback 윈도우 하나로 모든 스텝을 예측 (동일 값)
//	autoregressive: 예측값을 윈도우 끝에 붙이고 가장 오래된 값을 버리며 반복
//	last_windows:   학습 윈도우 중 마지막 horizon 개를 예측
func forecastHorizon(model Model, scaled []float64, ws *WindowSet, horizon int, mode contracts.ForecastMode) ([]float64, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	switch mode {
	case contracts.ModeSameWindow, "":
		window, ok := TrailingWindow(scaled, ws.Lookback)
		if !ok {
			return nil, fmt.Errorf("trailing window: %w", contracts.ErrInsufficientData)
		}
		pred, err := model.Predict([][]float64{window})
		if err != nil {
			return nil, err
		}
		out := make([]float64, horizon)
		for i := range out {
			out[i] = pred[0]
		}
		return out, nil

	case contracts.ModeAutoregressive:
		window, ok := TrailingWindow(scaled, ws.Lookback)
		if !ok {
			return nil, fmt.Errorf("trailing window: %w", contracts.ErrInsufficientData)
		}
		out := make([]float64, 0, horizon)
		for step := 0; step < horizon; step++ {
			pred, err := model.Predict([][]float64{window})
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", step+1, err)
			}
			out = append(out, pred[0])
			next := make([]float64, len(window))
			copy(next, window[1:])
			next[len(next)-1] = pred[0]
			window = next
		}
		return out, nil

	case contracts.ModeLastWindows:
		if ws.Len() < horizon {
			return nil, fmt.Errorf("%d windows for horizon %d: %w", ws.Len(), horizon, contracts.ErrInsufficientData)
		}
		return model.Predict(ws.Inputs[ws.Len()-horizon:])

	default:
		return nil, fmt.Errorf("unknown forecast mode %q", mode)
	}
}
