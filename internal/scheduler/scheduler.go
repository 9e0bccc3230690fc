package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"ChartQuest/internal/game"
	"ChartQuest/internal/ledger"
	"ChartQuest/internal/model"
	"ChartQuest/internal/notifier"
	"ChartQuest/internal/progression"
)

// Scheduler routes player commands and autoplay ticks to the session.
type Scheduler struct {
	mu        sync.Mutex
	Cron      *cron.Cron
	Session   *game.Session
	Formatter *notifier.Formatter
	Notifiers []notifier.Notifier // receive level-ups and autoplay reports
	StateFile string
	Debug     bool
	Ctx       context.Context

	outbox []string // broadcasts queued under mu, sent after it is released
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sess *game.Session, f *notifier.Formatter, stateFile string, debug bool, notifiers ...notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Session:   sess,
		Formatter: f,
		Notifiers: notifiers,
		StateFile: stateFile,
		Debug:     debug,
		Ctx:       ctx,
	}
}

// RegisterAutoplay advances days trading days on every tick of the cron expression expr.
func (s *Scheduler) RegisterAutoplay(expr string, days int) error {
	if days < 1 {
		days = 1
	}
	if _, err := s.Cron.AddFunc(expr, func() { s.autoplay(days) }); err != nil {
		return fmt.Errorf("register autoplay: %w", err)
	}
	log.Printf("[INFO] autoplay registered: %q, %d day(s) per tick", expr, days)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running tick.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) autoplay(days int) {
	s.mu.Lock()
	s.autoplayLocked(days)
	outbox := s.takeOutbox()
	s.mu.Unlock()

	s.broadcast(outbox)
}

func (s *Scheduler) autoplayLocked(days int) {
	snap, err := s.Session.Snapshot()
	if err != nil {
		log.Printf("[ERROR] autoplay snapshot: %v", err)
		return
	}
	if snap.Clock.AtEnd() {
		return
	}
	log.Printf("[INFO] autoplay advancing %d day(s)", days)
	reply := s.advance(days)
	s.outbox = append(s.outbox, "🤖 Autoplay\n\n"+reply)
}

// HandleCommand processes a player command and returns a reply.
// Notifications it triggers are sent after the session is released.
func (s *Scheduler) HandleCommand(command string) string {
	s.mu.Lock()
	reply := s.handle(command)
	outbox := s.takeOutbox()
	s.mu.Unlock()

	s.broadcast(outbox)
	return reply
}

func (s *Scheduler) handle(command string) string {
	fields := strings.Fields(strings.ToLower(command))
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "next", "n":
		return s.advance(1)
	case "week":
		return s.advance(7)
	case "month":
		return s.advance(30)
	case "skip":
		n, err := argInt(fields)
		if err != nil || n < 1 {
			return "Usage: skip N (N ≥ 1)"
		}
		return s.advance(n)
	case "prev", "p":
		if !s.Session.StepBack() {
			return "⏮ Already at the first trading day."
		}
		s.save()
		return s.view(false)
	case "buy":
		return s.trade(model.TradeBuy)
	case "sell":
		return s.trade(model.TradeSell)
	case "reset":
		if err := s.Session.Reset(); err != nil {
			log.Printf("[ERROR] reset: %v", err)
			return fmt.Sprintf("❌ Reset failed: %v", err)
		}
		s.save()
		return "🔄 New game started.\n\n" + s.view(false)
	case "status":
		return s.view(false)
	case "chart":
		return s.view(true)
	case "equip":
		return s.equip(fields)
	case "exp":
		if !s.Debug {
			break
		}
		n, err := argInt(fields)
		if err != nil || n < 1 || int64(n) > progression.MaxGrant {
			return fmt.Sprintf("Usage: exp N (1 ≤ N ≤ %d)", progression.MaxGrant)
		}
		res, err := s.Session.GrantExp(int64(n))
		if err != nil {
			return fmt.Sprintf("❌ Grant failed: %v", err)
		}
		s.save()
		s.announce(&res)
		return fmt.Sprintf("Lv.%d, %d exp", res.NewLevel, res.Exp)
	case "help":
		return s.Formatter.FormatHelp(s.Debug)
	}
	return fmt.Sprintf("Unknown command %q.\n\n%s", fields[0], s.Formatter.FormatHelp(s.Debug))
}

func argInt(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, errors.New("missing argument")
	}
	return strconv.Atoi(fields[1])
}

func (s *Scheduler) advance(days int) string {
	res, err := s.Session.AdvanceTurn(days)
	if err != nil {
		log.Printf("[ERROR] advance %d: %v", days, err)
		return fmt.Sprintf("❌ Could not advance: %v", err)
	}
	if res.Moved {
		s.save()
	}
	s.announce(res.LevelUp)
	return s.Formatter.FormatTurn(res) + "\n\n" + s.view(true)
}

func (s *Scheduler) trade(kind model.TradeKind) string {
	res, err := s.Session.ExecuteTrade(kind)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "💸 Not enough cash for a single share."
	case err != nil:
		log.Printf("[ERROR] %s: %v", kind, err)
		return fmt.Sprintf("❌ Trade failed: %v", err)
	}
	if res.Executed() {
		s.save()
	}
	s.announce(res.LevelUp)
	return s.Formatter.FormatTrade(res) + "\n\n" + s.view(false)
}

func (s *Scheduler) equip(fields []string) string {
	var f progression.Feature
	switch {
	case len(fields) < 2:
		return "Usage: equip sma25|sma75"
	case fields[1] == "sma25":
		f = progression.FeatureSMA25
	case fields[1] == "sma75":
		f = progression.FeatureSMA75
	default:
		return "Usage: equip sma25|sma75"
	}
	on, err := s.Session.ToggleEquipment(f)
	if errors.Is(err, game.ErrLocked) {
		return fmt.Sprintf("🔒 %s unlocks at level %d.", f, progression.UnlockLevel(f))
	}
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	s.save()
	state := "unequipped"
	if on {
		state = "equipped"
	}
	return fmt.Sprintf("%s %s.\n\n%s", f, state, s.view(true))
}

func (s *Scheduler) view(withChart bool) string {
	snap, err := s.Session.Snapshot()
	if err != nil {
		log.Printf("[ERROR] snapshot: %v", err)
		return fmt.Sprintf("❌ %v", err)
	}
	var b strings.Builder
	if withChart {
		b.WriteString(s.Formatter.FormatChart(snap.Chart))
		b.WriteString("\n")
		b.WriteString(s.Formatter.FormatMetrics(snap))
		b.WriteString("\n")
	}
	b.WriteString(s.Formatter.FormatHUD(snap))
	if withChart {
		b.WriteString("\n")
		b.WriteString(s.Formatter.FormatEquipment(snap.Progression.Level, snap.Equipment))
	}
	return b.String()
}

// announce queues a level-up message. Callers hold s.mu.
func (s *Scheduler) announce(res *model.LevelUpResult) {
	if msg := s.Formatter.FormatLevelUp(res); msg != "" {
		s.outbox = append(s.outbox, msg)
	}
}

func (s *Scheduler) takeOutbox() []string {
	out := s.outbox
	s.outbox = nil
	return out
}

func (s *Scheduler) broadcast(msgs []string) {
	for _, msg := range msgs {
		notifier.Broadcast(s.Ctx, msg, s.Notifiers...)
	}
}

func (s *Scheduler) save() {
	if s.StateFile == "" {
		return
	}
	if err := game.SaveState(s.StateFile, s.Session.Save()); err != nil {
		log.Printf("[ERROR] save session: %v", err)
	}
}
