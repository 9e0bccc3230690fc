package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/subcommands"

	"ChartQuest/internal/collector"
	"ChartQuest/internal/game"
	"ChartQuest/internal/notifier"
	"ChartQuest/internal/scheduler"
)

type playCmd struct {
	symbol string
	year   int
	fresh  bool
	plain  bool
	width  int
	debug  bool
}

func (*playCmd) Name() string     { return "play" }
func (*playCmd) Synopsis() string { return "play the trading game in the terminal" }
func (*playCmd) Usage() string {
	return `play [-symbol <ticker>] [-year <yyyy>] [-new] [-plain] [-width <cols>]

  Loads a year of daily prices and starts the game at its first trading day,
  or resumes the saved session for the same symbol and year.
  Type help at the prompt for commands, quit to leave.
`
}

func (c *playCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "ticker to play, overrides game.symbol")
	f.IntVar(&c.year, "year", 0, "year to play, overrides game.year")
	f.BoolVar(&c.fresh, "new", false, "ignore the saved session")
	f.BoolVar(&c.plain, "plain", false, "print markdown without styling")
	f.IntVar(&c.width, "width", 100, "word wrap width")
	f.BoolVar(&c.debug, "debug", false, "enable the exp command")
}

func (c *playCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return subcommands.ExitFailure
	}
	if c.symbol != "" {
		cfg.Game.Symbol = c.symbol
	}
	if c.year != 0 {
		cfg.Game.Year = c.year
	}
	cfg.Game.Debug = cfg.Game.Debug || c.debug
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return subcommands.ExitUsageError
	}

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	series, err := collector.NewCollector(fetcher, cfg.Game.Symbol, cfg.Game.LookbackDays).Load(cfg.Game.Year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load prices: %v\n", err)
		return subcommands.ExitFailure
	}

	st := openStores(cfg)
	defer st.Close()

	sess, err := game.NewSession(series, st.progress, st.journal, game.Options{
		InitialCapital: cfg.Game.InitialCapital,
		WindowDays:     cfg.Game.WindowDays,
	})
	if err != nil {
		log.Printf("[ERROR] new session: %v", err)
		return subcommands.ExitFailure
	}
	if !c.fresh {
		saved, err := game.LoadState(cfg.Session.StateFile)
		switch {
		case err != nil:
			log.Printf("[WARN] load session: %v", err)
		case saved != nil:
			if err := sess.Restore(saved); err != nil {
				log.Printf("[WARN] %v, starting a new game", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := notifier.NewTerminalNotifier(os.Stdout, c.width, c.plain)
	notifiers := []notifier.Notifier{term}
	var tg *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tg = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		notifiers = append(notifiers, tg)
	}

	sched := scheduler.NewScheduler(ctx, sess, notifier.NewFormatter(cfg.Game.Currency),
		cfg.Session.StateFile, cfg.Game.Debug, notifiers...)
	if cfg.Schedule.AutoplayCron != "" {
		if err := sched.RegisterAutoplay(cfg.Schedule.AutoplayCron, cfg.Schedule.AutoplayDays); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	sched.Start()
	defer sched.Stop()

	// polling must finish before the deferred store close
	var polling sync.WaitGroup
	if tg != nil {
		polling.Add(1)
		go func() {
			defer polling.Done()
			tg.StartPolling(ctx, sched.HandleCommand)
		}()
		log.Println("[INFO] Telegram polling started")
	}

	term.Notify(ctx, sched.HandleCommand("chart"))
	term.Notify(ctx, "Type `help` for commands.")
	err = term.Serve(ctx, os.Stdin, "> ", sched.HandleCommand)
	stop()
	polling.Wait()
	if err != nil {
		log.Printf("[ERROR] console: %v", err)
		return subcommands.ExitFailure
	}

	if err := game.SaveState(cfg.Session.StateFile, sess.Save()); err != nil {
		log.Printf("[ERROR] save session: %v", err)
	}
	log.Println("[INFO] game saved, bye")
	return subcommands.ExitSuccess
}
