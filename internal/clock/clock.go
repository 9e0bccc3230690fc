package clock

import (
	"sort"

	"ChartQuest/internal/model"
)

// New places a fresh clock on the series start date.
func New(s *model.Series) model.Clock {
	return model.Clock{Current: s.Start, Start: s.Start, End: s.End}
}

// Advance moves forward by days trading days. The bool is false when the
// clock did not move. Requests past the series tail clamp to End.
func Advance(c model.Clock, bars []model.Bar, days int) (model.Clock, bool) {
	if days < 1 || c.AtEnd() {
		return c, false
	}

	// first bar strictly after Current
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(c.Current) })
	remaining := len(bars) - i
	if remaining == 0 {
		return c, false
	}

	next := c
	if remaining >= days {
		next.Current = bars[i+days-1].Date
	} else {
		next.Current = c.End
	}
	return next, true
}

// StepBack moves to the latest trading day before Current.
func StepBack(c model.Clock, bars []model.Bar) (model.Clock, bool) {
	if c.AtStart() {
		return c, false
	}
	// first bar on or after Current; the one before it is the target
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(c.Current) })
	if i == 0 {
		return c, false
	}
	prev := c
	prev.Current = bars[i-1].Date
	return prev, true
}

// Reset returns the clock to its start date.
func Reset(c model.Clock) model.Clock {
	c.Current = c.Start
	return c
}
