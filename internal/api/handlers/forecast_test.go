package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/logger"
	"github.com/RBaltar/InvestAi/pkg/redis"
)

type fakeStore struct {
	tickers     []string
	history     map[string][]contracts.HistoryPoint
	predictions map[string][]contracts.PredictionPoint
	comparison  map[string][]contracts.ComparisonPoint
	err         error
	calls       int
}

func (f *fakeStore) ListTickers(ctx context.Context) ([]string, error) {
	f.calls++
	return f.tickers, f.err
}

func (f *fakeStore) GetHistory(ctx context.Context, ticker string) ([]contracts.HistoryPoint, error) {
	f.calls++
	return f.history[ticker], f.err
}

func (f *fakeStore) GetPredictions(ctx context.Context, ticker string) ([]contracts.PredictionPoint, error) {
	f.calls++
	return f.predictions[ticker], f.err
}

func (f *fakeStore) GetComparison(ctx context.Context, ticker string) ([]contracts.ComparisonPoint, error) {
	f.calls++
	return f.comparison[ticker], f.err
}

// memoryCache JSON round trip like redis.Cache
type memoryCache struct {
	data    map[string][]byte
	failGet bool
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if m.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func newStore() *fakeStore {
	observed := 39.1
	return &fakeStore{
		tickers: []string{"PETR4", "VALE3"},
		history: map[string][]contracts.HistoryPoint{
			"PETR4": {{Date: "2024-06-07", Close: 38.2}, {Date: "2024-06-10", Close: 38.45}},
		},
		predictions: map[string][]contracts.PredictionPoint{
			"PETR4": {{Date: "2024-06-11", PredictedPrice: 38.9}},
		},
		comparison: map[string][]contracts.ComparisonPoint{
			"PETR4": {
				{Date: "2024-06-11", PredictedPrice: 38.9, RealPrice: &observed},
				{Date: "2024-06-12", PredictedPrice: 39.0},
			},
		},
	}
}

func newTestRouter(h *ForecastHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/tickers", h.ListTickers).Methods("GET")
	r.HandleFunc("/api/history/{ticker}", h.GetHistory).Methods("GET")
	r.HandleFunc("/api/predictions/{ticker}", h.GetPredictions).Methods("GET")
	r.HandleFunc("/api/comparison/{ticker}", h.GetComparison).Methods("GET")
	return r
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestForecastHandler_Routes(t *testing.T) {
	store := newStore()
	router := newTestRouter(NewForecastHandler(store, store, store, logger.Nop()))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "tickers",
			path:       "/api/tickers",
			wantStatus: http.StatusOK,
			wantBody:   `{"tickers":["PETR4","VALE3"]}`,
		},
		{
			name:       "history lower-case ticker",
			path:       "/api/history/petr4",
			wantStatus: http.StatusOK,
			wantBody:   `{"ticker":"PETR4","history":[{"date":"2024-06-07","close":38.2},{"date":"2024-06-10","close":38.45}]}`,
		},
		{
			name:       "history unknown ticker",
			path:       "/api/history/XXXX3",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"no history found for XXXX3"}`,
		},
		{
			name:       "predictions",
			path:       "/api/predictions/PETR4",
			wantStatus: http.StatusOK,
			wantBody:   `{"ticker":"PETR4","predictions":[{"date":"2024-06-11","predicted_price":38.9}]}`,
		},
		{
			name:       "predictions never forecast",
			path:       "/api/predictions/VALE3",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"no predictions found for VALE3"}`,
		},
		{
			name:       "comparison keeps missing real price as null",
			path:       "/api/comparison/PETR4",
			wantStatus: http.StatusOK,
			wantBody: `{"ticker":"PETR4","comparison":[` +
				`{"date":"2024-06-11","predicted_price":38.9,"real_price":39.1},` +
				`{"date":"2024-06-12","predicted_price":39,"real_price":null}]}`,
		},
		{
			name:       "comparison unknown ticker",
			path:       "/api/comparison/VALE3",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"no predictions found for VALE3"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestForecastHandler_EmptyTickerList(t *testing.T) {
	store := &fakeStore{}
	rec := serve(t, newTestRouter(NewForecastHandler(store, store, store, logger.Nop())), "/api/tickers")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tickers":[]}`, rec.Body.String())
}

func TestForecastHandler_StorageError(t *testing.T) {
	store := newStore()
	store.err = contracts.ErrStorageUnavailable
	router := newTestRouter(NewForecastHandler(store, store, store, logger.Nop()))

	for _, path := range []string{"/api/tickers", "/api/history/PETR4", "/api/predictions/PETR4", "/api/comparison/PETR4"} {
		rec := serve(t, router, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"error"`, path)
	}
}

func TestForecastHandler_Cache(t *testing.T) {
	store := newStore()
	cache := &memoryCache{data: map[string][]byte{}}
	router := newTestRouter(NewForecastHandler(store, store, store, logger.Nop()).WithCache(cache, time.Minute))

	first := serve(t, router, "/api/predictions/PETR4")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, store.calls)
	assert.Contains(t, cache.data, redis.PredictionsKey("PETR4"))

	second := serve(t, router, "/api/predictions/petr4")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, store.calls, "served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestForecastHandler_CacheFailureFallsThrough(t *testing.T) {
	store := newStore()
	cache := &memoryCache{data: map[string][]byte{}, failGet: true}
	router := newTestRouter(NewForecastHandler(store, store, store, logger.Nop()).WithCache(cache, 0))

	rec := serve(t, router, "/api/history/PETR4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.calls)
}

func TestForecastHandler_DisabledRedisCache(t *testing.T) {
	store := newStore()
	cache := redis.NewCache(redis.Disabled(), "investai")
	router := newTestRouter(NewForecastHandler(store, store, store, logger.Nop()).WithCache(cache, redis.TTLShort))

	serve(t, router, "/api/tickers")
	serve(t, router, "/api/tickers")
	assert.Equal(t, 2, store.calls)
}
