package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// lastValueModel 윈도우의 마지막 값 + 0.01 을 예측
type lastValueModel struct {
	seen [][]float64
}

func (m *lastValueModel) Train([][]float64, []float64) (TrainReport, error) {
	return TrainReport{}, nil
}

func (m *lastValueModel) Predict(inputs [][]float64) ([]float64, error) {
	out := make([]float64, len(inputs))
	for i, w := range inputs {
		m.seen = append(m.seen, append([]float64(nil), w...))
		out[i] = w[len(w)-1] + 0.01
	}
	return out, nil
}

func TestForecastHorizon_SameWindow(t *testing.T) {
	scaled := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	ws, ok := BuildWindows(scaled, 3)
	require.True(t, ok)
	m := &lastValueModel{}

	out, err := forecastHorizon(m, scaled, ws, 4, contracts.ModeSameWindow)
	require.NoError(t, err)

	assert.Len(t, out, 4)
	for _, v := range out {
		assert.InDelta(t, 0.51, v, 1e-12)
	}
	require.Len(t, m.seen, 1)
	assert.Equal(t, []float64{0.3, 0.4, 0.5}, m.seen[0])
}

func TestForecastHorizon_Autoregressive(t *testing.T) {
	scaled := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	ws, _ := BuildWindows(scaled, 3)
	m := &lastValueModel{}

	out, err := forecastHorizon(m, scaled, ws, 3, contracts.ModeAutoregressive)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.51, 0.52, 0.53}, out, 1e-12)
	require.Len(t, m.seen, 3)
	assert.InDeltaSlice(t, []float64{0.4, 0.5, 0.51}, m.seen[1], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.51, 0.52}, m.seen[2], 1e-12)
}

func TestForecastHorizon_LastWindows(t *testing.T) {
	scaled := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	ws, _ := BuildWindows(scaled, 2) // 4 windows
	m := &lastValueModel{}

	out, err := forecastHorizon(m, scaled, ws, 2, contracts.ModeLastWindows)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.41, 0.51}, out, 1e-12)

	_, err = forecastHorizon(m, scaled, ws, 5, contracts.ModeLastWindows)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestForecastHorizon_Errors(t *testing.T) {
	scaled := []float64{0.1, 0.2, 0.3}
	ws, _ := BuildWindows(scaled, 2)

	_, err := forecastHorizon(&lastValueModel{}, scaled, ws, 0, contracts.ModeSameWindow)
	assert.Error(t, err)

	_, err = forecastHorizon(&lastValueModel{}, scaled, ws, 1, contracts.ForecastMode("bogus"))
	assert.Error(t, err)
}
