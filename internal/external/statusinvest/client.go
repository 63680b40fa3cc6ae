package statusinvest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/pkg/httputil"
	"github.com/RBaltar/InvestAi/pkg/logger"
)

// 지표 라벨 (페이지의 h3 텍스트)
const (
	LabelPriceEarnings = "P/L"
	LabelDividendYield = "Dividend Yield"
	LabelROE           = "ROE"
	LabelMarketValue   = "Valor de mercado"
	LabelVolume        = "VOLUME (dia)"
)

// Client handles scraping of StatusInvest stock pages
// ⭐ SSOT: StatusInvest 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new StatusInvest client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://statusinvest.com.br"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "statusinvest"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// Fetch 종목 페이지 한 건을 스크랩해 스냅샷 행으로 변환
// 값을 찾지 못한 지표는 nil
func (c *Client) Fetch(ctx context.Context, ticker string) (*contracts.HistoricalRow, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	url := fmt.Sprintf("%s/acoes/%s", c.baseURL, strings.ToLower(ticker))

	body, err := c.httpClient.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	now := c.now()
	row, err := ParsePage(body, ticker, now)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ticker, err)
	}

	log := c.logger.WithField("ticker", ticker)
	if row.Close == nil {
		log.Warn("close price not found on page")
	} else {
		log.WithField("close", *row.Close).Debug("page scraped")
	}
	return row, nil
}

// ParsePage StatusInvest HTML 에서 종가와 지표 추출
// 종가는 첫 번째 strong.value, 지표는 라벨 h3 뒤의 strong.value
func ParsePage(html []byte, ticker string, collectedAt time.Time) (*contracts.HistoricalRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	row := &contracts.HistoricalRow{
		Date:        contracts.TruncateDay(collectedAt),
		Ticker:      ticker,
		CollectedAt: collectedAt,
	}

	if price, ok := ParseNumber(doc.Find("strong.value").First().Text()); ok {
		row.Close = &price
	}
	row.PriceEarnings = indicator(doc, LabelPriceEarnings)
	row.DividendYield = indicator(doc, LabelDividendYield)
	row.ROE = indicator(doc, LabelROE)
	row.MarketValue = indicator(doc, LabelMarketValue)
	row.Volume = indicator(doc, LabelVolume)

	return row, nil
}

// indicator 라벨과 같은 h3 를 찾고, 가장 가까운 조상 블록의 strong.value 를 읽음
func indicator(doc *goquery.Document, label string) *float64 {
	var out *float64
	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(h.Text()), label) {
			return true
		}
		block := h.Parent()
		for depth := 0; depth < 3 && block.Length() > 0; depth++ {
			if v := block.Find("strong.value").First(); v.Length() > 0 {
				if n, ok := ParseNumber(v.Text()); ok {
					out = &n
				}
				return false
			}
			block = block.Parent()
		}
		return true
	})
	return out
}
