package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/RBaltar/InvestAi/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := cache.InvalidateTicker(ctx, "PETR4"); err != nil {
		t.Errorf("InvalidateTicker() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{"TickersKey", TickersKey, "tickers"},
		{"HistoryKey", func() string { return HistoryKey("petr4") }, "history:PETR4"},
		{"PredictionsKey", func() string { return PredictionsKey("VALE3") }, "predictions:VALE3"},
		{"ComparisonKey", func() string { return ComparisonKey("itub4") }, "comparison:ITUB4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestCache_RoundTrip(t *testing.T) {
	// Skip unless a Redis instance is reachable
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(&config.Config{
		Redis: config.RedisConfig{
			Host:    os.Getenv("REDIS_HOST"),
			Port:    "6379",
			Enabled: true,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "investai-test")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type payload struct {
		Ticker string  `json:"ticker"`
		Close  float64 `json:"close"`
	}
	in := payload{Ticker: "PETR4", Close: 38.5}

	if err := cache.Set(ctx, HistoryKey("PETR4"), in, TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out payload
	found, err := cache.Get(ctx, HistoryKey("PETR4"), &out)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if out != in {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}

	if err := cache.InvalidateTicker(ctx, "PETR4"); err != nil {
		t.Fatalf("InvalidateTicker() error = %v", err)
	}
	found, _ = cache.Get(ctx, HistoryKey("PETR4"), &out)
	if found {
		t.Error("Expected miss after InvalidateTicker")
	}
}
