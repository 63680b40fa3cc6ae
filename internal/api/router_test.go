package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBaltar/InvestAi/internal/api/handlers"
	"github.com/RBaltar/InvestAi/internal/api/stream"
	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/logger"
	"github.com/RBaltar/InvestAi/pkg/metrics"
)

type emptyStore struct{}

func (emptyStore) ListTickers(ctx context.Context) ([]string, error) { return []string{"PETR4"}, nil }
func (emptyStore) GetHistory(ctx context.Context, ticker string) ([]contracts.HistoryPoint, error) {
	return nil, nil
}
func (emptyStore) GetPredictions(ctx context.Context, ticker string) ([]contracts.PredictionPoint, error) {
	return nil, nil
}
func (emptyStore) GetComparison(ctx context.Context, ticker string) ([]contracts.ComparisonPoint, error) {
	return nil, nil
}

type panicStore struct{ emptyStore }

func (panicStore) ListTickers(ctx context.Context) ([]string, error) { panic("boom") }

func newRouter(t *testing.T, store interface {
	handlers.TickerLister
	handlers.HistoryReader
	handlers.PredictionReader
}, hub *stream.Hub, rec *metrics.Recorder) http.Handler {
	t.Helper()
	h := handlers.NewForecastHandler(store, store, store, logger.Nop())
	return NewRouter(h, hub, rec, logger.Nop())
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := get(newRouter(t, emptyStore{}, nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"investai-api"}`, rec.Body.String())
}

func TestRouter_Routes(t *testing.T) {
	router := newRouter(t, emptyStore{}, nil, nil)

	tests := []struct {
		path string
		want int
	}{
		{"/api/tickers", http.StatusOK},
		{"/api/history/PETR4", http.StatusNotFound},
		{"/api/predictions/PETR4", http.StatusNotFound},
		{"/api/comparison/PETR4", http.StatusNotFound},
		{"/api/unknown", http.StatusNotFound},
		{"/metrics", http.StatusNotFound},
		{"/ws/runs", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, get(router, tt.path).Code)
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, emptyStore{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickers", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RecoversPanic(t *testing.T) {
	rec := get(newRouter(t, panicStore{}, nil, nil), "/api/tickers")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.New()
	router := newRouter(t, emptyStore{}, nil, m)

	get(router, "/api/history/petr4")
	get(router, "/api/history/vale3")

	n, err := testutil.GatherAndCount(m.Registry(), "investai_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one series per route template")

	rec := get(router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `route="/api/history/{ticker}"`)
	assert.Contains(t, body, `status="404"`)
}

func TestRouter_RunStream(t *testing.T) {
	hub := stream.NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(newRouter(t, emptyStore{}, hub, metrics.New()))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/runs", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.PublishRun(&contracts.RunSummary{RunID: "run-7"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev stream.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "run-7", ev.Data.RunID)
}
