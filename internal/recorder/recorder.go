package recorder

import (
	"time"

	"ChartQuest/internal/model"
)

// TradeEvent holds data for one executed trade.
type TradeEvent struct {
	SessionID   string
	Symbol      string
	Date        time.Time
	Kind        model.TradeKind
	Quantity    int64
	Price       int64
	Amount      int64
	Profit      int64
	CashAfter   int64
	SharesAfter int64
}

// LevelUpEvent records a level change.
type LevelUpEvent struct {
	SessionID string
	Date      time.Time
	Source    model.ExpSource
	Gained    int64
	OldLevel  int64
	NewLevel  int64
	Exp       int64
}

// ProgressStore persists the single shared progression record.
type ProgressStore interface {
	Load() (model.Progression, error)
	// Update applies fn as one atomic read-modify-write.
	Update(fn func(model.Progression) model.Progression) (model.Progression, error)
	Reset() error
}

// Recorder persists the trade journal for later review.
type Recorder interface {
	RecordTrade(evt *TradeEvent) error
	RecordLevelUp(evt *LevelUpEvent) error
	Close() error
}
