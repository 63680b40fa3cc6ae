package contracts

import "context"

// ⭐ SSOT: 파이프라인 저장소 인터페이스 정의는 여기서만

// SeriesStore 종가 시계열 읽기 전용 어댑터
type SeriesStore interface {
	// ListTickers 데이터가 있는 종목 목록
	ListTickers(ctx context.Context) ([]string, error)
	// LoadSeries 종목 시계열; 데이터가 없으면 (nil, nil)
	LoadSeries(ctx context.Context, ticker string) (*PriceSeries, error)
}

// ForecastStore 예측 결과 append-only 어댑터
type ForecastStore interface {
	// Append 한 종목의 예측 결과를 한 트랜잭션으로 저장
	Append(ctx context.Context, ticker string, records []ForecastRecord) error
}

// RowAppender 수집기 스냅샷 저장
type RowAppender interface {
	AppendRows(ctx context.Context, rows []HistoricalRow) error
}

// RunPublisher 실행 요약 구독자 (websocket hub 등)
type RunPublisher interface {
	PublishRun(summary *RunSummary)
}
