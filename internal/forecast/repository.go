package forecast

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

// Repository 예측 결과 저장소 (analytics.price_predictions, append-only)
type Repository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	policy  retry.Policy
}

// NewRepository 새 저장소 생성. timeout 은 시도 한 번의 상한
func NewRepository(pool *pgxpool.Pool, timeout time.Duration, log zerolog.Logger) *Repository {
	log = log.With().Str("component", "forecast.repository").Logger()
	policy := retry.Default()
	policy.Retryable = database.IsTransient
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying forecast store call")
	}
	return &Repository{pool: pool, timeout: timeout, policy: policy}
}

// Append 한 종목의 예측을 한 트랜잭션으로 저장 (종목 간 트랜잭션 없음)
func (r *Repository) Append(ctx context.Context, ticker string, records []contracts.ForecastRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO analytics.price_predictions (date, ticker, predicted_price, run_id)
		VALUES ($1, $2, $3, $4)`

	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query, rec.Date, ticker, rec.PredictedPrice, rec.RunID)
		}

		br := tx.SendBatch(ctx, batch)
		for range records {
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
		return fmt.Errorf("append forecasts for %s: %w: %w", ticker, contracts.ErrPersistence, err)
	}
	return nil
}

// GetPredictions 종목의 예측 목록 (날짜별 최신 실행 값)
func (r *Repository) GetPredictions(ctx context.Context, ticker string) ([]contracts.PredictionPoint, error) {
	query := `
		SELECT DISTINCT ON (date) date, predicted_price
		FROM analytics.price_predictions
		WHERE ticker = $1
		ORDER BY date ASC, created_at DESC, id DESC`

	var points []contracts.PredictionPoint
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		rows, err := r.pool.Query(ctx, query, ticker)
		if err != nil {
			return err
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var d time.Time
			var p contracts.PredictionPoint
			if err := rows.Scan(&d, &p.PredictedPrice); err != nil {
				return err
			}
			p.Date = d.Format(contracts.DateLayout)
			points = append(points, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get predictions for %s: %w: %w", ticker, contracts.ErrStorageUnavailable, err)
	}
	return points, nil
}

// GetComparison 예측값과 같은 날짜 실제 종가 비교
// 예측은 날짜별 최신 실행, 실제값은 날짜별 마지막 수집 종가
func (r *Repository) GetComparison(ctx context.Context, ticker string) ([]contracts.ComparisonPoint, error) {
	query := `
		WITH latest_pred AS (
			SELECT DISTINCT ON (date) date, predicted_price
			FROM analytics.price_predictions
			WHERE ticker = $1
			ORDER BY date, created_at DESC, id DESC
		),
		latest_close AS (
			SELECT DISTINCT ON (date) date, close
			FROM data.historical_prices
			WHERE ticker = $1 AND close IS NOT NULL AND close > 0
			ORDER BY date, collected_at DESC, id DESC
		)
		SELECT p.date, p.predicted_price, c.close
		FROM latest_pred p
		LEFT JOIN latest_close c ON c.date = p.date
		ORDER BY p.date ASC`

	var points []contracts.ComparisonPoint
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		rows, err := r.pool.Query(ctx, query, ticker)
		if err != nil {
			return err
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var d time.Time
			var p contracts.ComparisonPoint
			if err := rows.Scan(&d, &p.PredictedPrice, &p.RealPrice); err != nil {
				return err
			}
			p.Date = d.Format(contracts.DateLayout)
			points = append(points, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get comparison for %s: %w: %w", ticker, contracts.ErrStorageUnavailable, err)
	}
	return points, nil
}
