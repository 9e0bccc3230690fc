package progression

import (
	"math"

	"github.com/shopspring/decimal"

	"ChartQuest/internal/model"
)

const (
	// ExpPerLevel scales the experience required to clear a level.
	ExpPerLevel = 50
	// MaxGrant caps a single award. Larger deltas are clamped to it.
	MaxGrant int64 = 1_000_000_000
)

var (
	growthRate      = decimal.New(1, -4) // 0.01% of the valuation increase
	realizationRate = decimal.New(1, -3) // 0.1% of the realised profit
)

// RequiredExp returns the experience needed to leave level.
func RequiredExp(level int64) int64 {
	return level * ExpPerLevel
}

// Accrue adds delta experience and chains as many level-ups as it pays for.
// Negative deltas count as zero and deltas above MaxGrant are clamped, so the
// sum cannot wrap.
func Accrue(level, exp, delta int64) model.LevelUpResult {
	res := model.LevelUpResult{OldLevel: level}
	delta = min(max(delta, 0), MaxGrant)
	newExp := exp
	if newExp > math.MaxInt64-delta {
		newExp = math.MaxInt64
	} else {
		newExp += delta
	}
	for newExp >= RequiredExp(level) {
		newExp -= RequiredExp(level)
		level++
		res.LeveledUp = true
	}
	res.NewLevel = level
	res.Exp = newExp
	return res
}

// GrowthReward computes the experience granted for a valuation increase.
// Flat or falling valuations grant nothing.
func GrowthReward(before, after int64) int64 {
	if after <= before {
		return 0
	}
	return decimal.NewFromInt(after - before).Mul(growthRate).Floor().IntPart()
}

// RealizationBonus computes the extra experience for a profitable liquidation.
func RealizationBonus(profit int64) int64 {
	if profit <= 0 {
		return 0
	}
	return decimal.NewFromInt(profit).Mul(realizationRate).Floor().IntPart()
}

// Progress returns the share of the current level already earned, in percent.
func Progress(p model.Progression) float64 {
	req := RequiredExp(p.Level)
	if req <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(p.Exp).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(req)).Round(1).Float64()
	return pct
}
