package game

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"ChartQuest/internal/collector"
	"ChartQuest/internal/model"
	"ChartQuest/internal/progression"
	"ChartQuest/internal/recorder"
)

type memJournal struct {
	mu     sync.Mutex
	trades []recorder.TradeEvent
	levels []recorder.LevelUpEvent
}

func (j *memJournal) RecordTrade(evt *recorder.TradeEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.trades = append(j.trades, *evt)
	return nil
}

func (j *memJournal) RecordLevelUp(evt *recorder.LevelUpEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.levels = append(j.levels, *evt)
	return nil
}

func (j *memJournal) Close() error { return nil }

// flakyStore fails every write while fail is set.
type flakyStore struct {
	*recorder.MemoryStore
	fail bool
}

func (f *flakyStore) Update(fn func(model.Progression) model.Progression) (model.Progression, error) {
	if f.fail {
		return model.Progression{}, errors.New("database is locked")
	}
	return f.MemoryStore.Update(fn)
}

func newTestSession(t *testing.T, store recorder.ProgressStore, closes ...float64) (*Session, *memJournal) {
	t.Helper()
	j := &memJournal{}
	s, err := NewSession(mkSeries(closes...), store, j, Options{InitialCapital: 1000000, WindowDays: 60})
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	return s, j
}

func TestNewSession_EmptySeries(t *testing.T) {
	_, err := NewSession(&model.Series{}, recorder.NewMemoryStore(), nil, Options{InitialCapital: 1})
	if !errors.Is(err, collector.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestSession_BuyAdvanceSell(t *testing.T) {
	store := recorder.NewMemoryStore()
	s, j := newTestSession(t, store, 1500, 1600, 1700)

	buy, err := s.ExecuteTrade(model.TradeBuy)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if buy.Quantity != 666 {
		t.Fatalf("expected 666 shares, got %d", buy.Quantity)
	}

	turn, err := s.AdvanceTurn(1)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if turn.Gained != 6 {
		t.Errorf("expected 6 exp for the move to 1600, got %d", turn.Gained)
	}

	sell, err := s.ExecuteTrade(model.TradeSell)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	// profit measured against the snapshot refreshed by the advance: nothing new
	if sell.Profit != 0 || sell.Gained != 0 {
		t.Errorf("expected no profit over the refreshed snapshot, got %+v", sell)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Portfolio.Shares != 0 || snap.Portfolio.Cash != 1066600 || snap.ProfitLoss != 66600 {
		t.Errorf("unexpected snapshot %+v", snap.Portfolio)
	}
	if snap.Progression.Exp != 6 {
		t.Errorf("expected exp 6, got %+v", snap.Progression)
	}
	if len(j.trades) != 2 || j.trades[0].Kind != model.TradeBuy || j.trades[1].SessionID != s.ID() {
		t.Errorf("unexpected journal %+v", j.trades)
	}
}

func TestSession_LevelUpAutoEquips(t *testing.T) {
	s, j := newTestSession(t, recorder.NewMemoryStore(), 1500, 1600)

	if _, err := s.ToggleEquipment(progression.FeatureSMA25); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked at level 1, got %v", err)
	}

	// 50 + 100 + 150 clears levels 1 to 3
	res, err := s.GrantExp(300)
	if err != nil {
		t.Fatal(err)
	}
	if !res.LeveledUp || res.NewLevel != 4 || res.Exp != 0 {
		t.Fatalf("expected level 4 with 0 exp, got %+v", res)
	}
	snap, _ := s.Snapshot()
	if !snap.Equipment.SMA25 || snap.Equipment.SMA75 {
		t.Errorf("expected only SMA25 auto-equipped, got %+v", snap.Equipment)
	}
	if len(j.levels) != 1 || j.levels[0].Source != model.SourceDebug {
		t.Errorf("expected one debug level-up journaled, got %+v", j.levels)
	}

	on, err := s.ToggleEquipment(progression.FeatureSMA25)
	if err != nil || on {
		t.Errorf("expected SMA25 toggled off, got %v %v", on, err)
	}
	if _, err := s.ToggleEquipment(progression.FeatureSMA75); !errors.Is(err, ErrLocked) {
		t.Errorf("expected SMA75 locked at level 4, got %v", err)
	}
}

func TestSession_GrowthLevelUpJournalsDayReached(t *testing.T) {
	s, j := newTestSession(t, recorder.NewMemoryStore(), 1000, 1200, 1700)
	if _, err := s.ExecuteTrade(model.TradeBuy); err != nil {
		t.Fatal(err)
	}

	// 1000 shares from 1000 to 1700: floor(700000 * 0.0001) = 70 clears level 1
	turn, err := s.AdvanceTurn(2)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if turn.LevelUp == nil || !turn.LevelUp.LeveledUp {
		t.Fatalf("expected a level-up, got %+v", turn.LevelUp)
	}
	want := day0.AddDate(0, 0, 2)
	if len(j.levels) != 1 {
		t.Fatalf("expected one level-up journaled, got %+v", j.levels)
	}
	if !j.levels[0].Date.Equal(want) || !turn.Clock.Current.Equal(want) {
		t.Errorf("expected level-up dated %s, got %s (clock %s)", want, j.levels[0].Date, turn.Clock.Current)
	}
	if j.levels[0].Source != model.SourceGrowth || j.levels[0].Gained != 70 {
		t.Errorf("unexpected level-up event %+v", j.levels[0])
	}
}

func TestSession_StoreFailureKeepsState(t *testing.T) {
	store := &flakyStore{MemoryStore: recorder.NewMemoryStore()}
	s, _ := newTestSession(t, store, 1500, 1600)
	if _, err := s.ExecuteTrade(model.TradeBuy); err != nil {
		t.Fatal(err)
	}

	store.fail = true
	if _, err := s.AdvanceTurn(1); err == nil {
		t.Fatal("expected advance to fail")
	}
	snap, _ := s.Snapshot()
	if !snap.Clock.Current.Equal(snap.Clock.Start) || snap.Portfolio.PrevTotalValue != 1000000 {
		t.Errorf("expected state untouched, got clock %s prev %d", snap.Clock.Current, snap.Portfolio.PrevTotalValue)
	}

	store.fail = false
	if _, err := s.AdvanceTurn(1); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestSession_StepBackKeepsPortfolio(t *testing.T) {
	s, _ := newTestSession(t, recorder.NewMemoryStore(), 1500, 1600, 1700)
	s.ExecuteTrade(model.TradeBuy)
	s.AdvanceTurn(2)

	before, _ := s.Snapshot()
	if !s.StepBack() {
		t.Fatal("expected step back to move")
	}
	after, _ := s.Snapshot()
	if !after.Clock.Current.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("expected %s, got %s", day0.AddDate(0, 0, 1), after.Clock.Current)
	}
	if after.Portfolio.Shares != before.Portfolio.Shares || after.Progression != before.Progression {
		t.Errorf("step back changed portfolio or progression")
	}
}

func TestSession_Reset(t *testing.T) {
	store := recorder.NewMemoryStore()
	s, _ := newTestSession(t, store, 1500, 1600)
	s.ExecuteTrade(model.TradeBuy)
	s.AdvanceTurn(1)
	s.GrantExp(500)

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	snap, _ := s.Snapshot()
	if !snap.Clock.AtStart() || snap.Portfolio.Cash != 1000000 || snap.Portfolio.Shares != 0 ||
		len(snap.Portfolio.BuyDates) != 0 || snap.Portfolio.PrevTotalValue != 1000000 {
		t.Errorf("unexpected state after reset %+v", snap)
	}
	if snap.Progression != model.DefaultProgression() || snap.Equipment != (model.Equipment{}) {
		t.Errorf("expected default progression and no equipment, got %+v %+v", snap.Progression, snap.Equipment)
	}
}

func TestSession_ConcurrentGrantsAreAtomic(t *testing.T) {
	store := recorder.NewMemoryStore()
	a, _ := newTestSession(t, store, 1500, 1600)
	b, _ := newTestSession(t, store, 1500, 1600)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.GrantExp(5) }()
		go func() { defer wg.Done(); b.GrantExp(5) }()
	}
	wg.Wait()

	// 100 exp: 50 clears level 1, 50 of 100 towards level 2
	p, _ := store.Load()
	if p.Level != 2 || p.Exp != 50 {
		t.Errorf("expected {2 50}, got %+v", p)
	}
}

func TestSession_SaveRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "session.json")
	s, _ := newTestSession(t, recorder.NewMemoryStore(), 1500, 1600, 1700)
	s.ExecuteTrade(model.TradeBuy)
	s.AdvanceTurn(1)

	if err := SaveState(path, s.Save()); err != nil {
		t.Fatalf("SaveState() failed: %v", err)
	}
	g, err := LoadState(path)
	if err != nil || g == nil {
		t.Fatalf("LoadState() failed: %v", err)
	}

	fresh, _ := newTestSession(t, recorder.NewMemoryStore(), 1500, 1600, 1700)
	if err := fresh.Restore(g); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	snap, _ := fresh.Snapshot()
	if snap.SessionID != s.ID() || !snap.Clock.Current.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("unexpected restored clock %+v", snap.Clock)
	}
	if snap.Portfolio.Shares != 666 || len(snap.Portfolio.BuyDates) != 1 || !snap.Portfolio.BuyDates[0].Equal(day0) {
		t.Errorf("unexpected restored portfolio %+v", snap.Portfolio)
	}

	if err := RemoveState(path); err != nil {
		t.Fatal(err)
	}
	if g, err := LoadState(path); err != nil || g != nil {
		t.Errorf("expected nothing after removal, got %+v %v", g, err)
	}
}

func TestSession_RestoreRejectsStaleSave(t *testing.T) {
	s, _ := newTestSession(t, recorder.NewMemoryStore(), 1500, 1600)
	tests := []struct {
		name string
		g    SavedGame
	}{
		{"other symbol", SavedGame{Symbol: "6758.T", Year: 2024, Current: day0}},
		{"other year", SavedGame{Symbol: "7203.T", Year: 2023, Current: day0}},
		{"not a trading day", SavedGame{Symbol: "7203.T", Year: 2024, Current: day0.AddDate(0, 1, 0)}},
		{"shares without buy date", SavedGame{Symbol: "7203.T", Year: 2024, Current: day0,
			Portfolio: model.Portfolio{Cash: 1000, Shares: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Restore(&tt.g); !errors.Is(err, ErrStaleSave) {
				t.Errorf("expected ErrStaleSave, got %v", err)
			}
		})
	}
}
