package model

import (
	"sort"
	"time"
)

// Clock tracks where the player stands in the series.
type Clock struct {
	Current time.Time `json:"current"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// AtEnd reports whether no further advance is possible.
func (c Clock) AtEnd() bool { return !c.Current.Before(c.End) }

// AtStart reports whether no further step back is possible.
func (c Clock) AtStart() bool { return !c.Current.After(c.Start) }

// Portfolio is the single-instrument cash and share position.
type Portfolio struct {
	Cash           int64       `json:"cash"`
	Shares         int64       `json:"shares"`
	BuyDates       []time.Time `json:"buy_dates"`
	PrevTotalValue int64       `json:"prev_total_value"`
}

// Clone returns a deep copy so callers never share the BuyDates backing array.
func (p Portfolio) Clone() Portfolio {
	out := p
	out.BuyDates = make([]time.Time, len(p.BuyDates))
	copy(out.BuyDates, p.BuyDates)
	return out
}

// BoughtOn reports whether a buy happened on day.
func (p Portfolio) BoughtOn(day time.Time) bool {
	for _, d := range p.BuyDates {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// SortedBuyDates returns the buy markers in ascending order.
func (p Portfolio) SortedBuyDates() []time.Time {
	out := p.Clone().BuyDates
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Equipment holds the indicator toggles of a session.
type Equipment struct {
	SMA25 bool `json:"sma_25"`
	SMA75 bool `json:"sma_75"`
}

// TradeKind selects the trade side.
type TradeKind string

const (
	TradeBuy  TradeKind = "BUY"
	TradeSell TradeKind = "SELL"
)
