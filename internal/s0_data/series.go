package s0_data

import (
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

type rawClose struct {
	date  time.Time
	close *float64
}

// collapseByDate 수집 행을 날짜당 한 포인트로 합침
// 입력은 (date, collected_at) 오름차순. 같은 날짜에서는 가장 늦게 수집된 유효 종가를 사용
// NULL 또는 0 이하 종가뿐이면 Valid=false
func collapseByDate(ticker string, rows []rawClose) *contracts.PriceSeries {
	series := &contracts.PriceSeries{Ticker: ticker}
	for _, row := range rows {
		day := contracts.TruncateDay(row.date)
		valid := row.close != nil && *row.close > 0

		n := len(series.Points)
		if n > 0 && series.Points[n-1].Date.Equal(day) {
			if valid {
				series.Points[n-1].Close = *row.close
				series.Points[n-1].Valid = true
			}
			continue
		}

		p := contracts.PricePoint{Date: day}
		if valid {
			p.Close = *row.close
			p.Valid = true
		}
		series.Points = append(series.Points, p)
	}
	return series
}
