package calculator

import (
	"errors"
	"time"

	"ChartQuest/internal/model"
)

// Moving average windows offered as equipment.
const (
	ShortWindow = 25
	LongWindow  = 75
)

// MAPoint is one moving-average sample. OK is false during warmup.
type MAPoint struct {
	Date  time.Time
	Value float64
	OK    bool
}

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing SMA of closes aligned to history.
// Each point only looks at bars up to and including its own date.
func MovingAverage(history []model.Bar, window int) []MAPoint {
	closes := extractCloses(history)
	out := make([]MAPoint, len(history))
	for i, b := range history {
		out[i].Date = b.Date
		if v, err := CalculateSMA(closes[:i+1], window); err == nil {
			out[i].Value = v
			out[i].OK = true
		}
	}
	return out
}

// FilterToWindow keeps the points whose dates appear in visible.
func FilterToWindow(points []MAPoint, visible []model.Bar) []MAPoint {
	if len(visible) == 0 {
		return nil
	}
	keep := make(map[time.Time]struct{}, len(visible))
	for _, b := range visible {
		keep[b.Date] = struct{}{}
	}
	out := make([]MAPoint, 0, len(visible))
	for _, p := range points {
		if _, ok := keep[p.Date]; ok {
			out = append(out, p)
		}
	}
	return out
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
