package progression

// Feature is a display capability unlocked by levelling up.
type Feature int

const (
	FeatureCandlestick Feature = iota + 1
	FeatureMarketTime
	FeatureSMA25
	FeatureSMA75
)

// Unlocks lists every feature in unlock order.
var Unlocks = []struct {
	Feature Feature
	Level   int64
	Name    string
	Message string
}{
	{FeatureCandlestick, 2, "Candlestick chart", "🎊 Candlestick chart unlocked!"},
	{FeatureMarketTime, 3, "Market Time Vision", "⏰ Market Time Vision! Weekends and holidays are removed from the chart."},
	{FeatureSMA25, 4, "Moving average (25)", "📈 Moving average (25) equipped!"},
	{FeatureSMA75, 5, "Moving average (75)", "📈 Moving average (75) equipped!"},
}

// UnlockLevel returns the level at which f becomes available, 0 if unknown.
func UnlockLevel(f Feature) int64 {
	for _, u := range Unlocks {
		if u.Feature == f {
			return u.Level
		}
	}
	return 0
}

// Unlocked reports whether f is available at level.
func Unlocked(f Feature, level int64) bool {
	l := UnlockLevel(f)
	return l > 0 && level >= l
}

// NewlyUnlocked returns the features crossed when moving from oldLevel to newLevel.
func NewlyUnlocked(oldLevel, newLevel int64) []Feature {
	var out []Feature
	for _, u := range Unlocks {
		if u.Level > oldLevel && u.Level <= newLevel {
			out = append(out, u.Feature)
		}
	}
	return out
}

func (f Feature) String() string {
	for _, u := range Unlocks {
		if u.Feature == f {
			return u.Name
		}
	}
	return "unknown"
}

// Message returns the announcement shown when f unlocks.
func (f Feature) Message() string {
	for _, u := range Unlocks {
		if u.Feature == f {
			return u.Message
		}
	}
	return ""
}
