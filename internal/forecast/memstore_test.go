package forecast

import (
	"context"
	"sort"
	"sync"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// memSeries in-memory SeriesStore
type memSeries struct {
	mu      sync.Mutex
	data    map[string]*contracts.PriceSeries
	listErr error
	loadErr map[string]error
	loads   []string
}

func newMemSeries() *memSeries {
	return &memSeries{data: map[string]*contracts.PriceSeries{}, loadErr: map[string]error{}}
}

func (m *memSeries) put(s *contracts.PriceSeries) {
	m.data[s.Ticker] = s
}

func (m *memSeries) ListTickers(ctx context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]string, 0, len(m.data))
	for t := range m.data {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memSeries) LoadSeries(ctx context.Context, ticker string) (*contracts.PriceSeries, error) {
	m.mu.Lock()
	m.loads = append(m.loads, ticker)
	m.mu.Unlock()

	if err := m.loadErr[ticker]; err != nil {
		return nil, err
	}
	s, ok := m.data[ticker]
	if !ok || s.Len() == 0 {
		return nil, nil
	}
	cp := &contracts.PriceSeries{Ticker: s.Ticker, Points: append([]contracts.PricePoint(nil), s.Points...)}
	return cp, nil
}

// memForecasts in-memory append-only ForecastStore
type memForecasts struct {
	mu      sync.Mutex
	records map[string][]contracts.ForecastRecord
	failFor map[string]error
}

func newMemForecasts() *memForecasts {
	return &memForecasts{records: map[string][]contracts.ForecastRecord{}, failFor: map[string]error{}}
}

func (m *memForecasts) Append(ctx context.Context, ticker string, records []contracts.ForecastRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[ticker]; err != nil {
		return err
	}
	m.records[ticker] = append(m.records[ticker], records...)
	return nil
}

func (m *memForecasts) get(ticker string) []contracts.ForecastRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contracts.ForecastRecord(nil), m.records[ticker]...)
}

// constModel Predict 가 항상 같은 값을 반환하는 테스트용 모델
type constModel struct {
	value    float64
	trainErr error
	trained  bool
	calls    int
}

func (c *constModel) Train(inputs [][]float64, targets []float64) (TrainReport, error) {
	if c.trainErr != nil {
		return TrainReport{}, c.trainErr
	}
	if len(inputs) == 0 {
		return TrainReport{}, contracts.ErrModelUsage
	}
	c.trained = true
	return TrainReport{Epochs: 1, Samples: len(inputs)}, nil
}

func (c *constModel) Predict(inputs [][]float64) ([]float64, error) {
	if !c.trained {
		return nil, contracts.ErrModelUsage
	}
	c.calls++
	out := make([]float64, len(inputs))
	for i := range out {
		out[i] = c.value
	}
	return out, nil
}
