package collector

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"ChartQuest/internal/model"
)

// ErrNoData means the provider returned no bars for the requested range.
var ErrNoData = errors.New("no price data")

// DefaultLookbackDays covers the longest moving average with room to spare.
const DefaultLookbackDays = 220

// MockFetcher generates a deterministic weekday series for development and testing.
type MockFetcher struct {
	BasePrice float64
	Bars      []model.Bar // returned as is when set
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ string, from, to time.Time) ([]model.Bar, error) {
	if m.Bars != nil {
		return m.Bars, nil
	}
	base := m.BasePrice
	if base <= 0 {
		base = 3000
	}
	return generateMockBars(base, model.Day(from), model.Day(to)), nil
}

func generateMockBars(basePrice float64, from, to time.Time) []model.Bar {
	var bars []model.Bar
	for d, i := from, 0; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.08*math.Sin(float64(i)/15) + float64(i)*0.0005)
		bars = append(bars, model.Bar{
			Date:   d,
			Open:   p * 0.998,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector loads the price series for one symbol and game year.
type Collector struct {
	Fetcher      Fetcher
	Symbol       string
	LookbackDays int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, lookbackDays int) *Collector {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Collector{Fetcher: fetcher, Symbol: symbol, LookbackDays: lookbackDays}
}

// Load fetches the year plus its lookback period and resolves the playable
// range: start is the first bar on or after January 1, end is the last bar.
func (c *Collector) Load(year int) (*model.Series, error) {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	from := jan1.AddDate(0, 0, -c.LookbackDays)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	raw, err := c.Fetcher.FetchDailyRange(c.Symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", c.Symbol, c.Fetcher.Name(), err)
	}
	bars := Normalize(raw)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %d: %w", c.Symbol, year, ErrNoData)
	}

	s := &model.Series{Symbol: c.Symbol, Year: year, Bars: bars}
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(jan1) })
	if i == len(bars) {
		log.Printf("[WARN] %s has no bars in %d, starting at first available bar", c.Symbol, year)
		i = 0
	}
	s.Start = bars[i].Date
	s.End = bars[len(bars)-1].Date

	log.Printf("[INFO] loaded %d bars for %s via %s (%s .. %s)", len(bars), c.Symbol, c.Fetcher.Name(),
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	return s, nil
}

// Normalize truncates dates to UTC midnight, sorts ascending and keeps the
// last bar seen for each date.
func Normalize(raw []model.Bar) []model.Bar {
	byDay := make(map[time.Time]int, len(raw))
	out := make([]model.Bar, 0, len(raw))
	for _, b := range raw {
		b.Date = model.Day(b.Date)
		if i, ok := byDay[b.Date]; ok {
			out[i] = b
			continue
		}
		byDay[b.Date] = len(out)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
