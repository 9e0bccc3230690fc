package game

import (
	"errors"
	"fmt"
	"time"

	"ChartQuest/internal/clock"
	"ChartQuest/internal/ledger"
	"ChartQuest/internal/model"
	"ChartQuest/internal/progression"
)

var (
	// ErrNoPrice means the clock points at a date missing from the series.
	ErrNoPrice = errors.New("no price for date")
	// ErrUnknownTrade means the trade kind is neither buy nor sell.
	ErrUnknownTrade = errors.New("unknown trade kind")
)

// Granter credits experience earned on day to the shared progression record
// as one atomic read-modify-write and reports the outcome.
type Granter func(exp int64, source model.ExpSource, day time.Time) (model.LevelUpResult, error)

// TurnResult is the outcome of advancing the clock.
type TurnResult struct {
	Clock     model.Clock
	Portfolio model.Portfolio
	Moved     bool
	Before    int64 // valuation on the day left behind
	After     int64 // valuation on the day reached
	Gained    int64
	LevelUp   *model.LevelUpResult // nil when no experience was granted
}

// AdvanceTurn moves the clock forward and rewards valuation growth.
// The valuation snapshot is refreshed even when nothing is granted.
func AdvanceTurn(c model.Clock, p model.Portfolio, s *model.Series, days int, grant Granter) (TurnResult, error) {
	res := TurnResult{Clock: c, Portfolio: p}
	if bar, ok := s.BarOn(c.Current); ok {
		res.Before = ledger.Valuation(p, bar.TradePrice())
	}

	next, moved := clock.Advance(c, s.Bars, days)
	if !moved {
		return res, nil
	}
	bar, ok := s.BarOn(next.Current)
	if !ok {
		return res, fmt.Errorf("%w: %s", ErrNoPrice, next.Current.Format("2006-01-02"))
	}

	after := ledger.Valuation(p, bar.TradePrice())
	gained := progression.GrowthReward(p.PrevTotalValue, after)
	if gained > 0 {
		lu, err := grant(gained, model.SourceGrowth, next.Current)
		if err != nil {
			return res, fmt.Errorf("grant growth reward: %w", err)
		}
		res.LevelUp = &lu
	}

	out := p.Clone()
	out.PrevTotalValue = after
	res.Clock = next
	res.Portfolio = out
	res.Moved = true
	res.After = after
	res.Gained = gained
	return res, nil
}

// TradeResult is the outcome of a buy or sell.
type TradeResult struct {
	Kind      model.TradeKind
	Date      time.Time
	Price     int64
	Portfolio model.Portfolio
	Quantity  int64
	Amount    int64
	Profit    int64
	Gained    int64
	LevelUp   *model.LevelUpResult
}

// Executed reports whether any shares changed hands.
func (r TradeResult) Executed() bool { return r.Quantity > 0 }

// ExecuteTrade applies a buy or a full sell at price on day. A profitable sell
// grants the realization bonus, and every executed sell refreshes the
// valuation snapshot.
func ExecuteTrade(kind model.TradeKind, p model.Portfolio, price int64, day time.Time, grant Granter) (TradeResult, error) {
	res := TradeResult{Kind: kind, Date: day, Price: price, Portfolio: p}

	switch kind {
	case model.TradeBuy:
		out, bought, cost, err := ledger.Buy(p, price, day)
		if err != nil {
			return res, err
		}
		res.Portfolio = out
		res.Quantity = bought
		res.Amount = cost
		return res, nil

	case model.TradeSell:
		out, sold, proceeds, profit := ledger.Sell(p, price)
		if sold == 0 {
			return res, nil
		}
		bonus := progression.RealizationBonus(profit)
		if bonus > 0 {
			lu, err := grant(bonus, model.SourceRealization, day)
			if err != nil {
				return res, fmt.Errorf("grant realization bonus: %w", err)
			}
			res.LevelUp = &lu
		}
		out.PrevTotalValue = ledger.Valuation(out, price)
		res.Portfolio = out
		res.Quantity = sold
		res.Amount = proceeds
		res.Profit = profit
		res.Gained = bonus
		return res, nil
	}
	return res, fmt.Errorf("%w: %q", ErrUnknownTrade, kind)
}
