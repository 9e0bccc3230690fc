package collector

import (
	"time"

	"ChartQuest/internal/model"
)

// Fetcher loads daily price bars for a symbol over an inclusive date range.
type Fetcher interface {
	FetchDailyRange(symbol string, from, to time.Time) ([]model.Bar, error)
	Name() string
}
