package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/database"
	"github.com/RBaltar/InvestAi/pkg/retry"
)

// Repository 수집 데이터 저장소 (data.historical_prices)
// ⭐ SSOT: 종가 시계열 읽기/수집 스냅샷 쓰기는 여기서만
type Repository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	policy  retry.Policy
}

// NewRepository creates a new Repository instance
// timeout bounds each attempt of each statement
func NewRepository(pool *pgxpool.Pool, timeout time.Duration, log zerolog.Logger) *Repository {
	log = log.With().Str("component", "s0_data.repository").Logger()
	policy := retry.Default()
	policy.Retryable = database.IsTransient
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying series store call")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Repository{pool: pool, timeout: timeout, policy: policy}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// ListTickers 수집 이력이 있는 종목 (알파벳순)
func (r *Repository) ListTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM data.historical_prices
		ORDER BY ticker ASC
	`

	var tickers []string
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		rows, err := r.pool.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		tickers = tickers[:0]
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				return err
			}
			tickers = append(tickers, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w: %w", contracts.ErrStorageUnavailable, err)
	}
	return tickers, nil
}

// LoadSeries 종목의 일별 종가 시계열
// 행이 없으면 (nil, nil)
func (r *Repository) LoadSeries(ctx context.Context, ticker string) (*contracts.PriceSeries, error) {
	query := `
		SELECT date, close
		FROM data.historical_prices
		WHERE ticker = $1
		ORDER BY date ASC, collected_at ASC, id ASC
	`

	var raw []rawClose
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		rows, err := r.pool.Query(ctx, query, ticker)
		if err != nil {
			return err
		}
		defer rows.Close()

		raw = raw[:0]
		for rows.Next() {
			var rc rawClose
			if err := rows.Scan(&rc.date, &rc.close); err != nil {
				return err
			}
			raw = append(raw, rc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load series for %s: %w: %w", ticker, contracts.ErrStorageUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return collapseByDate(ticker, raw), nil
}

// AppendRows 수집 스냅샷 저장 (한 트랜잭션)
func (r *Repository) AppendRows(ctx context.Context, rows []contracts.HistoricalRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.historical_prices (
			date, ticker, close, price_earnings, dividend_yield, roe, market_value, volume, collected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		batch := &pgx.Batch{}
		for _, row := range rows {
			collected := row.CollectedAt
			if collected.IsZero() {
				collected = time.Now()
			}
			batch.Queue(query,
				contracts.TruncateDay(row.Date), row.Ticker, row.Close, row.PriceEarnings,
				row.DividendYield, row.ROE, row.MarketValue, row.Volume, collected,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return fmt.Errorf("append %d rows: %w: %w", len(rows), contracts.ErrPersistence, err)
	}
	return nil
}

// GetHistory 조회 API 용 일별 유효 종가
func (r *Repository) GetHistory(ctx context.Context, ticker string) ([]contracts.HistoryPoint, error) {
	series, err := r.LoadSeries(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, nil
	}

	var out []contracts.HistoryPoint
	for _, p := range series.Points {
		if !p.Valid {
			continue
		}
		out = append(out, contracts.HistoryPoint{Date: p.Date.Format(contracts.DateLayout), Close: p.Close})
	}
	return out, nil
}
