package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"ChartQuest/internal/model"
	"ChartQuest/internal/notifier"
)

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recent trades from the journal" }
func (*historyCmd) Usage() string {
	return `history [-n <count>]

  Lists the most recent trades, newest first. Requires database.sqlite_path.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "number of trades to list")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.limit <= 0 {
		fmt.Fprintln(os.Stderr, "-n must be positive")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return subcommands.ExitFailure
	}
	st := openStores(cfg)
	defer st.Close()
	if err := requireSQLite(st); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	trades, err := st.sqlite.RecentTrades(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read journal: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(trades) == 0 {
		fmt.Println("No trades yet.")
		return subcommands.ExitSuccess
	}

	f := notifier.NewFormatter(cfg.Game.Currency)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Date\tSymbol\tSide\tQty\tPrice\tAmount\tProfit\tCash after")
	for _, t := range trades {
		profit := "-"
		if t.Kind == model.TradeSell {
			profit = f.Money(t.Profit)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n", t.Date.Format("2006-01-02"), t.Symbol, t.Kind,
			t.Quantity, f.Money(t.Price), f.Money(t.Amount), profit, f.Money(t.CashAfter))
	}
	w.Flush()
	return subcommands.ExitSuccess
}
