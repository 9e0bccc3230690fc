package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"ChartQuest/internal/game"
)

type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "reset progression to level 1 and delete the saved session" }
func (*resetCmd) Usage() string {
	return `reset

  Sets the shared progression record back to level 1 with no experience and
  removes the session file. The trade journal is kept.
`
}

func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (*resetCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return subcommands.ExitFailure
	}
	st := openStores(cfg)
	defer st.Close()

	if err := st.progress.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "reset progression: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := game.RemoveState(cfg.Session.StateFile); err != nil {
		fmt.Fprintf(os.Stderr, "remove session: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Progress reset to Lv.1.")
	return subcommands.ExitSuccess
}
