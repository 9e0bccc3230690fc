package recorder

// NoopRecorder is a no-op journal used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *TradeEvent) error     { return nil }
func (n *NoopRecorder) RecordLevelUp(_ *LevelUpEvent) error { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
