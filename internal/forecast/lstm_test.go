package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

func smallConfig() LSTMConfig {
	return LSTMConfig{
		Hidden1:      6,
		Hidden2:      6,
		DenseUnits:   4,
		Dropout:      0,
		Epochs:       200,
		BatchSize:    16,
		LearningRate: 0.01,
		ClipNorm:     1,
		Seed:         7,
	}
}

func rampWindows(n, lookback int) *WindowSet {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i) / float64(n-1)
	}
	ws, _ := BuildWindows(values, lookback)
	return ws
}

func TestLSTM_PredictBeforeTrain(t *testing.T) {
	m := NewLSTMModel(smallConfig())

	_, err := m.Predict([][]float64{{0.1, 0.2, 0.3}})
	assert.ErrorIs(t, err, contracts.ErrModelUsage)
	assert.False(t, m.Trained())
}

func TestLSTM_TrainValidation(t *testing.T) {
	tests := []struct {
		name    string
		inputs  [][]float64
		targets []float64
	}{
		{"empty", nil, nil},
		{"target count mismatch", [][]float64{{0.1, 0.2}}, []float64{0.3, 0.4}},
		{"ragged windows", [][]float64{{0.1, 0.2}, {0.1}}, []float64{0.3, 0.4}},
		{"nan input", [][]float64{{0.1, math.NaN()}}, []float64{0.3}},
		{"inf target", [][]float64{{0.1, 0.2}}, []float64{math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewLSTMModel(smallConfig())
			_, err := m.Train(tt.inputs, tt.targets)
			assert.ErrorIs(t, err, contracts.ErrModelUsage)
		})
	}
}

func TestLSTM_PredictShapeMismatch(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 1
	m := NewLSTMModel(cfg)
	ws := rampWindows(20, 5)

	_, err := m.Train(ws.Inputs, ws.Targets)
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{0.1, 0.2}})
	assert.ErrorIs(t, err, contracts.ErrModelUsage)

	_, err = m.Predict(nil)
	assert.ErrorIs(t, err, contracts.ErrModelUsage)
}

func TestLSTM_Deterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 20
	cfg.Dropout = 0.2
	ws := rampWindows(30, 5)

	run := func() ([]float64, float64) {
		m := NewLSTMModel(cfg)
		report, err := m.Train(ws.Inputs, ws.Targets)
		require.NoError(t, err)
		out, err := m.Predict(ws.Inputs)
		require.NoError(t, err)
		return out, report.Loss
	}

	a, lossA := run()
	b, lossB := run()
	assert.Equal(t, a, b)
	assert.Equal(t, lossA, lossB)
}

func TestLSTM_LearnsRamp(t *testing.T) {
	ws := rampWindows(40, 5)
	m := NewLSTMModel(smallConfig())

	report, err := m.Train(ws.Inputs, ws.Targets)
	require.NoError(t, err)
	assert.Equal(t, 200, report.Epochs)
	assert.Equal(t, ws.Len(), report.Samples)

	preds, err := m.Predict(ws.Inputs)
	require.NoError(t, err)

	var mse float64
	for k, p := range preds {
		d := p - ws.Targets[k]
		mse += d * d
	}
	mse /= float64(len(preds))
	assert.Less(t, mse, 0.02)
}

// TestLSTM_GradientCheck compares backprop gradients with central differences.
func TestLSTM_GradientCheck(t *testing.T) {
	cfg := LSTMConfig{Hidden1: 3, Hidden2: 3, DenseUnits: 2, Seed: 3}
	m := NewLSTMModel(cfg)
	window := []float64{0.1, 0.5, 0.3, 0.9}
	target := 0.4

	m.lookback = len(window)
	m.ensureScratch(len(window))

	loss := func() float64 {
		d := m.forward(window, true) - target
		return d * d
	}

	m.zeroGrad()
	y := m.forward(window, true)
	m.backward(2 * (y - target))

	const eps = 1e-6
	for pi, p := range m.params {
		for _, i := range []int{0, len(p.w) / 2, len(p.w) - 1} {
			analytic := p.g[i]
			orig := p.w[i]

			p.w[i] = orig + eps
			plus := loss()
			p.w[i] = orig - eps
			minus := loss()
			p.w[i] = orig

			numeric := (plus - minus) / (2 * eps)
			tol := 1e-6 + 1e-4*math.Abs(numeric)
			assert.InDelta(t, numeric, analytic, tol,
				"param %d index %d: analytic %g numeric %g", pi, i, analytic, numeric)
		}
	}
}

func TestLSTMFactory_FreshModelPerTicker(t *testing.T) {
	factory := NewLSTMFactory(smallConfig())

	a := factory("PETR4").(*LSTMModel)
	b := factory("PETR4").(*LSTMModel)
	c := factory("VALE3").(*LSTMModel)

	assert.NotSame(t, a, b)
	assert.Equal(t, a.l1.W.w, b.l1.W.w, "same ticker, same seed")
	assert.NotEqual(t, a.l1.W.w, c.l1.W.w, "different ticker, different seed")
}
