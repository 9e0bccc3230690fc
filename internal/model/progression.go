package model

// Progression is the persisted player level record.
type Progression struct {
	Level int64 `json:"level"`
	Exp   int64 `json:"exp"`
}

// DefaultProgression is the record used when none exists yet.
func DefaultProgression() Progression {
	return Progression{Level: 1, Exp: 0}
}

// LevelUpResult describes the outcome of one experience accrual.
type LevelUpResult struct {
	OldLevel  int64
	NewLevel  int64
	Exp       int64
	LeveledUp bool
}

// ExpSource names where granted experience came from.
type ExpSource string

const (
	SourceGrowth      ExpSource = "GROWTH"
	SourceRealization ExpSource = "REALIZATION"
	SourceDebug       ExpSource = "DEBUG"
)
