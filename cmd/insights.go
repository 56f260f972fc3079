package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/insight"
	"github.com/ledgerline/budgetbook/renderer"
)

// insightsCmd holds the flags for the 'insights' subcommand.
type insightsCmd struct{}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "display saving goals and the expense prediction" }
func (*insightsCmd) Usage() string {
	return `bb insights

  Displays recommended saving goals and the next month's expense
  prediction. When the insight service is unreachable, local defaults
  are shown instead.
`
}
func (*insightsCmd) SetFlags(*flag.FlagSet) {}

func (c *insightsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	txs := a.session.Snapshot()

	// The goal record is the income of reference; without one, fall back to
	// the average of the recent income transactions.
	var income float64
	if goal, ok := a.session.Goal(); ok {
		income = goal.MonthlyIncome.InexactFloat64()
	} else {
		income = budgetbook.MonthlyIncome(txs, a.cfg.Currency).AsFloat()
	}

	goals := insight.FallbackGoals(income)
	pred := insight.FallbackPrediction()
	if client := a.insightClient(); client != nil {
		goals = client.RecommendGoals(ctx, a.session.Owner(), income, txs)
		pred = client.PredictExpenses(ctx, a.session.Owner())
	}
	printMarkdown(renderer.InsightsMarkdown(goals, pred, a.cfg.Currency))
	return subcommands.ExitSuccess
}

// suggestCmd holds the flags for the 'suggest' subcommand.
type suggestCmd struct {
	remote bool
	amount float64
}

func (*suggestCmd) Name() string     { return "suggest" }
func (*suggestCmd) Synopsis() string { return "suggest a category for a description" }
func (*suggestCmd) Usage() string {
	return `bb suggest [-remote] [-a <amount>] <description>

  Suggests a category using the keyword rules. With -remote, also asks
  the insight service's classifier; its failure is reported, not hidden.
`
}

func (c *suggestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.remote, "remote", false, "Also ask the remote classifier.")
	f.Float64Var(&c.amount, "a", 0, "Amount, given to the remote classifier as context.")
}

func (c *suggestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: suggest takes a description")
		return subcommands.ExitUsageError
	}
	description := f.Arg(0)
	for _, arg := range f.Args()[1:] {
		description += " " + arg
	}

	if s, ok := budgetbook.Classify(description); ok {
		fmt.Printf("Suggested category: %s (confidence %.0f%%)\n", s.Category, s.Confidence*100)
	} else {
		fmt.Println("No local suggestion for this description.")
	}

	if !c.remote {
		return subcommands.ExitSuccess
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.InsightURL == "" {
		fmt.Fprintln(os.Stderr, "Error: INSIGHT_URL is not set")
		return subcommands.ExitFailure
	}
	pred, err := insight.NewClient(cfg.InsightURL).PredictCategory(ctx, description, c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Remote classifier unavailable: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Remote suggestion: %s (confidence %.0f%%)\n", pred.Category, pred.Confidence*100)
	return subcommands.ExitSuccess
}
