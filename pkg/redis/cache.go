package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching on top of Client
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A miss returns (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// InvalidateTicker drops every cached response that belongs to ticker
func (c *Cache) InvalidateTicker(ctx context.Context, ticker string) error {
	if !c.client.Enabled() {
		return nil
	}

	pattern := c.fullKey("*:" + strings.ToUpper(ticker))
	iter := c.client.Redis().Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed: %w", err)
	}

	keys = append(keys, c.fullKey(TickersKey()))
	return c.client.Redis().Del(ctx, keys...).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute
	TTLMedium = 10 * time.Minute
	TTLDaily  = 24 * time.Hour
)

// TickersKey is the key of the distinct-tickers listing
func TickersKey() string {
	return "tickers"
}

// HistoryKey is the key of a ticker's close history
func HistoryKey(ticker string) string {
	return "history:" + strings.ToUpper(ticker)
}

// PredictionsKey is the key of a ticker's persisted forecasts
func PredictionsKey(ticker string) string {
	return "predictions:" + strings.ToUpper(ticker)
}

// ComparisonKey is the key of a ticker's predicted-vs-real comparison
func ComparisonKey(ticker string) string {
	return "comparison:" + strings.ToUpper(ticker)
}
