package ledger

import (
	"errors"
	"time"

	"ChartQuest/internal/model"
)

var (
	// ErrInsufficientFunds means not even one share is affordable.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidPrice means the trade price is not positive.
	ErrInvalidPrice = errors.New("price must be positive")
)

// NewPortfolio returns the starting position for initialCapital.
func NewPortfolio(initialCapital int64) model.Portfolio {
	return model.Portfolio{
		Cash:           initialCapital,
		Shares:         0,
		BuyDates:       []time.Time{},
		PrevTotalValue: initialCapital,
	}
}

// Valuation returns cash plus the market value of the held shares.
func Valuation(p model.Portfolio, price int64) int64 {
	return p.Cash + p.Shares*price
}

// Buy spends as much cash as possible on whole shares.
// On failure the portfolio is returned unchanged.
func Buy(p model.Portfolio, price int64, day time.Time) (out model.Portfolio, bought, cost int64, err error) {
	if price <= 0 {
		return p, 0, 0, ErrInvalidPrice
	}
	maxShares := p.Cash / price
	if maxShares <= 0 {
		return p, 0, 0, ErrInsufficientFunds
	}

	cost = maxShares * price
	out = p.Clone()
	out.Cash -= cost
	out.Shares += maxShares
	if !out.BoughtOn(day) {
		out.BuyDates = append(out.BuyDates, day)
	}
	return out, maxShares, cost, nil
}

// Sell liquidates the whole position. Selling with nothing held is a no-op.
// Profit is measured against the last valuation snapshot, not the cost basis.
func Sell(p model.Portfolio, price int64) (out model.Portfolio, sold, proceeds, profit int64) {
	if p.Shares <= 0 {
		return p, 0, 0, 0
	}

	sold = p.Shares
	proceeds = sold * price
	out = p.Clone()
	out.Cash += proceeds
	out.Shares = 0
	profit = out.Cash - p.PrevTotalValue
	return out, sold, proceeds, profit
}
