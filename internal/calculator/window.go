package calculator

import (
	"sort"
	"time"

	"ChartQuest/internal/model"
)

// BuildDisplayWindow splits the series at current. history holds every bar up
// to and including current; visible is its trailing windowDays bars.
// A non-positive windowDays shows the whole history.
func BuildDisplayWindow(bars []model.Bar, current time.Time, windowDays int) (visible, history []model.Bar) {
	n := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(current) })
	history = bars[:n:n]
	start := 0
	if windowDays > 0 && n > windowDays {
		start = n - windowDays
	}
	visible = history[start:n:n]
	return visible, history
}

// PriceChange compares the last close with the one before it.
func PriceChange(visible []model.Bar) (change, changePct float64) {
	if len(visible) <= 1 {
		return 0, 0
	}
	cur := visible[len(visible)-1].Close
	prev := visible[len(visible)-2].Close
	change = cur - prev
	if prev != 0 {
		changePct = change / prev * 100
	}
	return change, changePct
}
