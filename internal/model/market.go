package model

import (
	"math"
	"sort"
	"time"
)

// Bar represents a single trading day.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TradePrice is the close rounded to a whole currency unit.
func (b Bar) TradePrice() int64 {
	return int64(math.Round(b.Close))
}

// Series holds the full daily history loaded for one game.
type Series struct {
	Symbol string
	Year   int
	Bars   []Bar
	Start  time.Time
	End    time.Time
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Index returns the position of the bar dated on day, or -1.
func (s *Series) Index(day time.Time) int {
	i := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(day) })
	if i < len(s.Bars) && s.Bars[i].Date.Equal(day) {
		return i
	}
	return -1
}

// BarOn returns the bar dated on day.
func (s *Series) BarOn(day time.Time) (Bar, bool) {
	i := s.Index(day)
	if i < 0 {
		return Bar{}, false
	}
	return s.Bars[i], true
}

// Empty reports whether the series has no bars.
func (s *Series) Empty() bool { return len(s.Bars) == 0 }
