package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/logger"
	"github.com/RBaltar/InvestAi/pkg/redis"
)

// TickerLister 수집된 종목 목록 (s0_data.Repository)
type TickerLister interface {
	ListTickers(ctx context.Context) ([]string, error)
}

// HistoryReader 종가 이력 조회 (s0_data.Repository)
type HistoryReader interface {
	GetHistory(ctx context.Context, ticker string) ([]contracts.HistoryPoint, error)
}

// PredictionReader 저장된 예측 조회 (forecast.Repository)
type PredictionReader interface {
	GetPredictions(ctx context.Context, ticker string) ([]contracts.PredictionPoint, error)
	GetComparison(ctx context.Context, ticker string) ([]contracts.ComparisonPoint, error)
}

// ResponseCache JSON 응답 캐시 (redis.Cache)
type ResponseCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ForecastHandler handles read-only forecast API endpoints
// ⭐ SSOT: 예측 조회 API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	tickers     TickerLister
	history     HistoryReader
	predictions PredictionReader
	cache       ResponseCache
	ttl         time.Duration
	logger      *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	tickers TickerLister,
	history HistoryReader,
	predictions PredictionReader,
	log *logger.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		tickers:     tickers,
		history:     history,
		predictions: predictions,
		ttl:         redis.TTLShort,
		logger:      log.WithField("module", "api"),
	}
}

// WithCache enables response caching; nil keeps it disabled
func (h *ForecastHandler) WithCache(cache ResponseCache, ttl time.Duration) *ForecastHandler {
	h.cache = cache
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// TickersResponse GET /api/tickers
type TickersResponse struct {
	Tickers []string `json:"tickers"`
}

// HistoryResponse GET /api/history/{ticker}
type HistoryResponse struct {
	Ticker  string                   `json:"ticker"`
	History []contracts.HistoryPoint `json:"history"`
}

// PredictionsResponse GET /api/predictions/{ticker}
type PredictionsResponse struct {
	Ticker      string                      `json:"ticker"`
	Predictions []contracts.PredictionPoint `json:"predictions"`
}

// ComparisonResponse GET /api/comparison/{ticker}
type ComparisonResponse struct {
	Ticker     string                      `json:"ticker"`
	Comparison []contracts.ComparisonPoint `json:"comparison"`
}

// ListTickers returns every ticker with collected history
// GET /api/tickers
func (h *ForecastHandler) ListTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := cached(r.Context(), h, redis.TickersKey(), h.tickers.ListTickers)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tickers")
		respondError(w, http.StatusInternalServerError, "failed to list tickers")
		return
	}
	if tickers == nil {
		tickers = []string{}
	}

	respondJSON(w, http.StatusOK, TickersResponse{Tickers: tickers})
}

// GetHistory returns the daily close history of a ticker
// GET /api/history/{ticker}
func (h *ForecastHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	history, err := cached(r.Context(), h, redis.HistoryKey(ticker), func(ctx context.Context) ([]contracts.HistoryPoint, error) {
		return h.history.GetHistory(ctx, ticker)
	})
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to get history")
		respondError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if len(history) == 0 {
		respondError(w, http.StatusNotFound, "no history found for "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, HistoryResponse{Ticker: ticker, History: history})
}

// GetPredictions returns the latest persisted forecast per target date
// GET /api/predictions/{ticker}
func (h *ForecastHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	points, err := cached(r.Context(), h, redis.PredictionsKey(ticker), func(ctx context.Context) ([]contracts.PredictionPoint, error) {
		return h.predictions.GetPredictions(ctx, ticker)
	})
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to get predictions")
		respondError(w, http.StatusInternalServerError, "failed to get predictions")
		return
	}
	if len(points) == 0 {
		respondError(w, http.StatusNotFound, "no predictions found for "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, PredictionsResponse{Ticker: ticker, Predictions: points})
}

// GetComparison returns forecasts joined with the realized close
// GET /api/comparison/{ticker}
func (h *ForecastHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	points, err := cached(r.Context(), h, redis.ComparisonKey(ticker), func(ctx context.Context) ([]contracts.ComparisonPoint, error) {
		return h.predictions.GetComparison(ctx, ticker)
	})
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to get comparison")
		respondError(w, http.StatusInternalServerError, "failed to get comparison")
		return
	}
	if len(points) == 0 {
		respondError(w, http.StatusNotFound, "no predictions found for "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, ComparisonResponse{Ticker: ticker, Comparison: points})
}

func tickerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return "", false
	}
	return ticker, true
}

// cached 캐시 적중 시 그대로 반환, 아니면 load 후 저장
// 캐시 오류는 로그만 남기고 저장소 결과를 사용
func cached[T any](ctx context.Context, h *ForecastHandler, key string, load func(context.Context) (T, error)) (T, error) {
	var value T
	if h.cache != nil {
		hit, err := h.cache.Get(ctx, key, &value)
		if err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		} else if hit {
			return value, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, value, h.ttl); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}
	return value, nil
}
