package contracts

import "time"

// PricePoint 종가 관측값 (하루 1건)
// Valid=false 는 결측(NULL 또는 0 이하 종가)을 뜻함
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	Valid bool      `json:"valid"`
}

// PriceSeries 종목별 종가 시계열
// ⭐ 불변식: Points 는 날짜 오름차순, 중복 날짜 없음
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Len 원시 포인트 수 (결측 포함)
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// LastDate 마지막 관측 날짜
func (s *PriceSeries) LastDate() (time.Time, bool) {
	if s.Len() == 0 {
		return time.Time{}, false
	}
	return s.Points[len(s.Points)-1].Date, true
}

// IsOrdered 날짜가 엄격히 증가하는지 검사
func (s *PriceSeries) IsOrdered() bool {
	for i := 1; i < s.Len(); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return false
		}
	}
	return true
}

// HistoricalRow 수집기가 스크랩한 스냅샷 한 건 (data.historical_prices)
// 값이 없는 지표는 nil (0 으로 채우지 않음)
type HistoricalRow struct {
	Date          time.Time `json:"date"`
	Ticker        string    `json:"ticker"`
	Close         *float64  `json:"close"`
	PriceEarnings *float64  `json:"price_earnings"`
	DividendYield *float64  `json:"dividend_yield"`
	ROE           *float64  `json:"roe"`
	MarketValue   *float64  `json:"market_value"`
	Volume        *float64  `json:"volume"`
	CollectedAt   time.Time `json:"collected_at"`
}

// HistoryPoint 조회 API 용 (date, close)
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// DateLayout 모든 API/DB 날짜 문자열 포맷
const DateLayout = "2006-01-02"

// TruncateDay 시각을 UTC 자정으로 자름
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
