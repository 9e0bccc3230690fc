package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"ChartQuest/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps game symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"TOYOTA": "7203.T",
			"SONY":   "6758.T",
			"N225":   "^N225",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// quotes holds one column per field. A null entry marks a day without trading.
type quotes struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []quotes `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// column returns col[i], or fallback when the entry is null or missing.
func column(col []*float64, i int, fallback float64) float64 {
	if i < len(col) && col[i] != nil {
		return *col[i]
	}
	return fallback
}

// bars converts the columns to bars on exchange-local dates. Days without a
// close are dropped since nothing can be traded on them.
func (q quotes) bars(timestamps []int64, offset int64) []model.Bar {
	out := make([]model.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := *q.Close[i]
		out = append(out, model.Bar{
			Date:   model.Day(time.Unix(ts+offset, 0).UTC()),
			Open:   column(q.Open, i, c),
			High:   column(q.High, i, c),
			Low:    column(q.Low, i, c),
			Close:  c,
			Volume: column(q.Volume, i, 0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FetchDailyRange downloads daily bars from from through to.
func (f *YahooFetcher) FetchDailyRange(symbol string, from, to time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	u := f.BaseURL + "/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol)) + "?" + q.Encode()

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo %s: status %d: %s", symbol, resp.StatusCode, msg)
	}

	var cr chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("yahoo %s: decode: %w", symbol, err)
	}
	if e := cr.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s", symbol, e.Description)
	}
	for _, r := range cr.Chart.Result {
		if len(r.Indicators.Quote) == 0 {
			continue
		}
		if bars := r.Indicators.Quote[0].bars(r.Timestamp, r.Meta.GMTOffset); len(bars) > 0 {
			return bars, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
}
