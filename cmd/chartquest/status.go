package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"ChartQuest/internal/game"
	"ChartQuest/internal/model"
	"ChartQuest/internal/notifier"
	"ChartQuest/internal/progression"
)

type statusCmd struct {
	plain bool
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show level, experience and unlocked features" }
func (*statusCmd) Usage() string {
	return `status [-plain]

  Prints the shared progression record and the saved session, if any.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "print markdown without styling")
}

func (c *statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return subcommands.ExitFailure
	}
	st := openStores(cfg)
	defer st.Close()

	p, err := st.progress.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load progression: %v\n", err)
		return subcommands.ExitFailure
	}

	var eq model.Equipment
	md := fmt.Sprintf("## 🎮 Lv.%d\n\nExperience %d / %d (%.1f%%)\n\n",
		p.Level, p.Exp, progression.RequiredExp(p.Level), progression.Progress(p))
	if saved, err := game.LoadState(cfg.Session.StateFile); err != nil {
		log.Printf("[WARN] load session: %v", err)
	} else if saved != nil {
		eq = saved.Equipment
		md += fmt.Sprintf("Saved game: %s %d at %s, %d shares, updated %s\n\n",
			saved.Symbol, saved.Year, saved.Current.Format("2006-01-02"), saved.Portfolio.Shares,
			saved.UpdatedAt.Format("2006-01-02 15:04"))
	}
	md += notifier.NewFormatter(cfg.Game.Currency).FormatEquipment(p.Level, eq)

	if err := notifier.NewTerminalNotifier(os.Stdout, 0, c.plain).Notify(ctx, md); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
