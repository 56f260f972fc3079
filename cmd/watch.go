package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	"github.com/ledgerline/budgetbook"
)

// watchCmd holds the flags for the 'watch' subcommand.
type watchCmd struct{}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "stream ledger changes until interrupted" }
func (*watchCmd) Usage() string {
	return `bb watch

  Subscribes to the realtime channel and prints the running totals every
  time the ledger changes, until interrupted.
`
}
func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(context.Background())

	changes := make(chan struct{}, 1)
	a.session.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	report := func() {
		snap := a.session.Snapshot()
		t := budgetbook.NewTotals(snap, a.cfg.Currency)
		fmt.Printf("%d transactions, income %s, expense %s, balance %s\n",
			len(snap), t.Income, t.Expense, t.Balance)
	}
	report()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "watch stopped")
			return subcommands.ExitSuccess
		case <-changes:
			report()
		}
	}
}
