package chart

import (
	"fmt"
	"time"

	"ChartQuest/internal/calculator"
	"ChartQuest/internal/model"
	"ChartQuest/internal/progression"
)

// Kind is how price bars are drawn.
type Kind string

const (
	KindLine        Kind = "line"
	KindCandlestick Kind = "candlestick"
)

// markerOffset places buy markers just below the price they annotate.
const markerOffset = 0.995

// axisPadding is the empty space kept right of the current day.
const axisPadding = 5 * 24 * time.Hour

// Marker is a buy entry drawn on the chart.
type Marker struct {
	Date  time.Time
	Price float64
}

// View is everything a renderer needs to draw the chart.
type View struct {
	Title              string
	Kind               Kind
	Bars               []model.Bar
	Markers            []Marker
	SMA25              []calculator.MAPoint
	SMA75              []calculator.MAPoint
	SkipNonTradingDays bool
	AxisStart          time.Time
	AxisEnd            time.Time
}

// Input gathers the state a view is derived from.
type Input struct {
	Symbol    string
	Year      int
	Visible   []model.Bar
	History   []model.Bar
	BuyDates  []time.Time
	Level     int64
	Equipment model.Equipment
	Current   time.Time
}

// Build derives the chart view for the player's level and equipment.
func Build(in Input) View {
	v := View{
		Title: fmt.Sprintf("%s - %d", in.Symbol, in.Year),
		Kind:  KindLine,
		Bars:  in.Visible,
	}
	candles := progression.Unlocked(progression.FeatureCandlestick, in.Level)
	if candles {
		v.Kind = KindCandlestick
	}
	if progression.Unlocked(progression.FeatureMarketTime, in.Level) {
		v.SkipNonTradingDays = true
		v.Title += " ⚡️ Market Time Vision"
	}

	bought := make(map[time.Time]struct{}, len(in.BuyDates))
	for _, d := range in.BuyDates {
		bought[d] = struct{}{}
	}
	for _, b := range in.Visible {
		if _, ok := bought[b.Date]; !ok {
			continue
		}
		y := b.Close * markerOffset
		if candles {
			y = b.Low * markerOffset
		}
		v.Markers = append(v.Markers, Marker{Date: b.Date, Price: y})
	}

	if in.Equipment.SMA25 && progression.Unlocked(progression.FeatureSMA25, in.Level) {
		v.SMA25 = calculator.FilterToWindow(calculator.MovingAverage(in.History, calculator.ShortWindow), in.Visible)
	}
	if in.Equipment.SMA75 && progression.Unlocked(progression.FeatureSMA75, in.Level) {
		v.SMA75 = calculator.FilterToWindow(calculator.MovingAverage(in.History, calculator.LongWindow), in.Visible)
	}

	if len(in.Visible) > 0 {
		v.AxisStart = in.Visible[0].Date
		v.AxisEnd = in.Visible[len(in.Visible)-1].Date
	}
	if !in.Current.IsZero() {
		v.AxisEnd = in.Current.Add(axisPadding)
	}
	return v
}

// Gaps lists the calendar days inside the window that have no bar.
// They are the breaks hidden when SkipNonTradingDays is set.
func (v View) Gaps() []time.Time {
	if len(v.Bars) < 2 {
		return nil
	}
	var out []time.Time
	for i := 1; i < len(v.Bars); i++ {
		for d := v.Bars[i-1].Date.AddDate(0, 0, 1); d.Before(v.Bars[i].Date); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
	}
	return out
}
