package database

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS analytics`,

	`CREATE TABLE IF NOT EXISTS data.historical_prices (
		id              BIGSERIAL PRIMARY KEY,
		date            DATE NOT NULL,
		ticker          TEXT NOT NULL,
		close           DOUBLE PRECISION,
		price_earnings  DOUBLE PRECISION,
		dividend_yield  DOUBLE PRECISION,
		roe             DOUBLE PRECISION,
		market_value    DOUBLE PRECISION,
		volume          DOUBLE PRECISION,
		collected_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_historical_prices_ticker_date
		ON data.historical_prices (ticker, date)`,

	`CREATE TABLE IF NOT EXISTS analytics.price_predictions (
		id               BIGSERIAL PRIMARY KEY,
		date             DATE NOT NULL,
		ticker           TEXT NOT NULL,
		predicted_price  DOUBLE PRECISION NOT NULL,
		run_id           TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_predictions_ticker_date
		ON analytics.price_predictions (ticker, date)`,
}

// Migrate creates the schemas and tables used by the collector and the forecast pipeline
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
