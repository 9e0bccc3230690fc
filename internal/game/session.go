package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ChartQuest/internal/calculator"
	"ChartQuest/internal/chart"
	"ChartQuest/internal/clock"
	"ChartQuest/internal/collector"
	"ChartQuest/internal/ledger"
	"ChartQuest/internal/model"
	"ChartQuest/internal/progression"
	"ChartQuest/internal/recorder"
)

var (
	// ErrLocked means the feature is not unlocked at the current level.
	ErrLocked = errors.New("feature locked")
	// ErrStaleSave means a saved game does not fit the loaded series.
	ErrStaleSave = errors.New("saved game does not match series")
)

// Options configures a new session.
type Options struct {
	InitialCapital int64
	WindowDays     int
}

// Session owns the canonical clock, portfolio and equipment of one game and
// serialises every action against them.
type Session struct {
	mu        sync.Mutex
	id        string
	series    *model.Series
	clock     model.Clock
	portfolio model.Portfolio
	equipment model.Equipment
	opts      Options
	store     recorder.ProgressStore
	journal   recorder.Recorder
}

// NewSession starts a game at the first trading day of the series.
func NewSession(series *model.Series, store recorder.ProgressStore, journal recorder.Recorder, opts Options) (*Session, error) {
	if series == nil || series.Empty() {
		return nil, collector.ErrNoData
	}
	if opts.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %d", opts.InitialCapital)
	}
	if journal == nil {
		journal = recorder.NewNoopRecorder()
	}
	return &Session{
		id:        uuid.NewString(),
		series:    series,
		clock:     clock.New(series),
		portfolio: ledger.NewPortfolio(opts.InitialCapital),
		opts:      opts,
		store:     store,
		journal:   journal,
	}, nil
}

// ID identifies the session in the trade journal.
func (s *Session) ID() string { return s.id }

// AdvanceTurn moves forward by days trading days.
func (s *Session) AdvanceTurn(days int) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := AdvanceTurn(s.clock, s.portfolio, s.series, days, s.granter())
	if err != nil {
		return res, err
	}
	s.clock = res.Clock
	s.portfolio = res.Portfolio
	return res, nil
}

// StepBack moves to the previous trading day. Portfolio and progression stay as they are.
func (s *Session) StepBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, moved := clock.StepBack(s.clock, s.series.Bars)
	s.clock = prev
	return moved
}

// ExecuteTrade trades at the close of the current day.
func (s *Session) ExecuteTrade(kind model.TradeKind) (TradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bar, ok := s.series.BarOn(s.clock.Current)
	if !ok {
		return TradeResult{Kind: kind, Portfolio: s.portfolio}, fmt.Errorf("%w: %s", ErrNoPrice, s.clock.Current.Format("2006-01-02"))
	}
	res, err := ExecuteTrade(kind, s.portfolio, bar.TradePrice(), s.clock.Current, s.granter())
	if err != nil {
		return res, err
	}
	s.portfolio = res.Portfolio
	if res.Executed() {
		if err := s.journal.RecordTrade(&recorder.TradeEvent{
			SessionID: s.id, Symbol: s.series.Symbol, Date: res.Date, Kind: res.Kind,
			Quantity: res.Quantity, Price: res.Price, Amount: res.Amount, Profit: res.Profit,
			CashAfter: res.Portfolio.Cash, SharesAfter: res.Portfolio.Shares,
		}); err != nil {
			log.Printf("[ERROR] record trade: %v", err)
		}
	}
	return res, nil
}

// GrantExp credits experience directly. Used by the debug command.
func (s *Session) GrantExp(exp int64) (model.LevelUpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp <= 0 {
		p, err := s.store.Load()
		return model.LevelUpResult{OldLevel: p.Level, NewLevel: p.Level, Exp: p.Exp}, err
	}
	return s.granter()(exp, model.SourceDebug, s.clock.Current)
}

// Reset restores clock, portfolio, equipment and the shared progression to
// their starting values in one step.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("reset progression: %w", err)
	}
	s.clock = clock.Reset(s.clock)
	s.portfolio = ledger.NewPortfolio(s.opts.InitialCapital)
	s.equipment = model.Equipment{}
	log.Printf("[INFO] session %s reset", s.id)
	return nil
}

// ToggleEquipment flips a moving-average indicator and returns its new state.
func (s *Session) ToggleEquipment(f progression.Feature) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Load()
	if err != nil {
		return false, fmt.Errorf("load progression: %w", err)
	}
	if !progression.Unlocked(f, p.Level) {
		return false, fmt.Errorf("%w: %s unlocks at level %d", ErrLocked, f, progression.UnlockLevel(f))
	}
	switch f {
	case progression.FeatureSMA25:
		s.equipment.SMA25 = !s.equipment.SMA25
		return s.equipment.SMA25, nil
	case progression.FeatureSMA75:
		s.equipment.SMA75 = !s.equipment.SMA75
		return s.equipment.SMA75, nil
	}
	return false, fmt.Errorf("%s is not equipment", f)
}

// Snapshot is a read-only view of the session derived from the canonical state.
type Snapshot struct {
	SessionID      string
	Symbol         string
	Year           int
	Clock          model.Clock
	Portfolio      model.Portfolio
	Progression    model.Progression
	Equipment      model.Equipment
	InitialCapital int64
	Bar            model.Bar
	Valuation      int64
	ProfitLoss     int64
	ProfitLossPct  float64
	Visible        []model.Bar
	History        []model.Bar
	TotalBars      int
	Chart          chart.View
}

// Snapshot derives the display state for the current day.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog, err := s.store.Load()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load progression: %w", err)
	}
	visible, history := calculator.BuildDisplayWindow(s.series.Bars, s.clock.Current, s.opts.WindowDays)
	bar, _ := s.series.BarOn(s.clock.Current)

	snap := Snapshot{
		SessionID:      s.id,
		Symbol:         s.series.Symbol,
		Year:           s.series.Year,
		Clock:          s.clock,
		Portfolio:      s.portfolio.Clone(),
		Progression:    prog,
		Equipment:      s.equipment,
		InitialCapital: s.opts.InitialCapital,
		Bar:            bar,
		Valuation:      ledger.Valuation(s.portfolio, bar.TradePrice()),
		Visible:        visible,
		History:        history,
		TotalBars:      len(s.series.Bars),
	}
	snap.ProfitLoss = snap.Valuation - s.opts.InitialCapital
	snap.ProfitLossPct = float64(snap.ProfitLoss) / float64(s.opts.InitialCapital) * 100
	snap.Chart = chart.Build(chart.Input{
		Symbol:    s.series.Symbol,
		Year:      s.series.Year,
		Visible:   visible,
		History:   history,
		BuyDates:  s.portfolio.BuyDates,
		Level:     prog.Level,
		Equipment: s.equipment,
		Current:   s.clock.Current,
	})
	return snap, nil
}

// Save captures the resumable part of the session.
func (s *Session) Save() *SavedGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &SavedGame{
		SessionID: s.id,
		Symbol:    s.series.Symbol,
		Year:      s.series.Year,
		Current:   s.clock.Current,
		Portfolio: s.portfolio.Clone(),
		Equipment: s.equipment,
	}
}

// Restore resumes a saved game for the same symbol and year.
func (s *Session) Restore(g *SavedGame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.Symbol != s.series.Symbol || g.Year != s.series.Year {
		return fmt.Errorf("%w: saved %s/%d, loaded %s/%d", ErrStaleSave, g.Symbol, g.Year, s.series.Symbol, s.series.Year)
	}
	day := model.Day(g.Current)
	if s.series.Index(day) < 0 || day.Before(s.clock.Start) || day.After(s.clock.End) {
		return fmt.Errorf("%w: %s is not a playable trading day", ErrStaleSave, day.Format("2006-01-02"))
	}
	if g.Portfolio.Cash < 0 || g.Portfolio.Shares < 0 {
		return fmt.Errorf("%w: negative position", ErrStaleSave)
	}
	if g.Portfolio.Shares > 0 && len(g.Portfolio.BuyDates) == 0 {
		return fmt.Errorf("%w: %d shares without a buy date", ErrStaleSave, g.Portfolio.Shares)
	}

	p := g.Portfolio.Clone()
	for i, d := range p.BuyDates {
		p.BuyDates[i] = model.Day(d)
	}
	if g.SessionID != "" {
		s.id = g.SessionID
	}
	s.clock.Current = day
	s.portfolio = p
	s.equipment = g.Equipment
	log.Printf("[INFO] session %s restored at %s", s.id, day.Format("2006-01-02"))
	return nil
}

// granter returns the Granter used by this session's actions. Callers hold s.mu.
func (s *Session) granter() Granter {
	return func(exp int64, source model.ExpSource, day time.Time) (model.LevelUpResult, error) {
		var res model.LevelUpResult
		if _, err := s.store.Update(func(p model.Progression) model.Progression {
			res = progression.Accrue(p.Level, p.Exp, exp)
			return model.Progression{Level: res.NewLevel, Exp: res.Exp}
		}); err != nil {
			return model.LevelUpResult{}, err
		}
		if res.LeveledUp {
			s.onLevelUp(day, source, exp, res)
		}
		return res, nil
	}
}

func (s *Session) onLevelUp(day time.Time, source model.ExpSource, gained int64, res model.LevelUpResult) {
	for _, f := range progression.NewlyUnlocked(res.OldLevel, res.NewLevel) {
		switch f {
		case progression.FeatureSMA25:
			s.equipment.SMA25 = true
		case progression.FeatureSMA75:
			s.equipment.SMA75 = true
		}
	}
	log.Printf("[INFO] level up %d -> %d (%s +%d)", res.OldLevel, res.NewLevel, source, gained)
	if err := s.journal.RecordLevelUp(&recorder.LevelUpEvent{
		SessionID: s.id, Date: day, Source: source, Gained: gained,
		OldLevel: res.OldLevel, NewLevel: res.NewLevel, Exp: res.Exp,
	}); err != nil {
		log.Printf("[ERROR] record level up: %v", err)
	}
}
