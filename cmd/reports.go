package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/date"
	"github.com/ledgerline/budgetbook/renderer"
	"github.com/shopspring/decimal"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display totals and the spending breakdown" }
func (*summaryCmd) Usage() string {
	return `bb summary

  Displays income, expense and balance totals plus the per-category
  expense breakdown.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	txs := a.session.Snapshot()
	totals := budgetbook.NewTotals(txs, a.cfg.Currency)
	breakdown := budgetbook.CategoryBreakdown(txs, a.cfg.Currency)
	printMarkdown(renderer.SummaryMarkdown(totals, breakdown))
	return subcommands.ExitSuccess
}

// monthlyCmd holds the flags for the 'monthly' subcommand.
type monthlyCmd struct {
	months int
	date   string // last month of the window
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display the monthly expense rollup" }
func (*monthlyCmd) Usage() string {
	return `bb monthly [-n <months>] [-d <date>]

  Displays expenses bucketed per calendar month over the last n months,
  including months with no spending.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "n", 6, "Number of months in the window.")
	f.StringVar(&c.date, "d", date.Today().String(), "Last month of the window.")
}

func (c *monthlyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.months < 1 {
		fmt.Fprintln(os.Stderr, "Error: the window must cover at least one month")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	rollup := budgetbook.MonthlyRollup(a.session.Snapshot(), c.months, on, a.cfg.Currency)
	printMarkdown(renderer.MonthlyMarkdown(rollup))
	return subcommands.ExitSuccess
}

// dailyCmd holds the flags for the 'daily' subcommand.
type dailyCmd struct{}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "display the daily expense rollup" }
func (*dailyCmd) Usage() string {
	return `bb daily

  Displays expenses grouped per calendar day, oldest first.
`
}
func (*dailyCmd) SetFlags(*flag.FlagSet) {}

func (c *dailyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	printMarkdown(renderer.DailyMarkdown(budgetbook.DailyRollup(a.session.Snapshot(), a.cfg.Currency)))
	return subcommands.ExitSuccess
}

// budgetCmd holds the flags for the 'budget' subcommand.
type budgetCmd struct {
	income float64
	save   float64
	date   string
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "show or set the monthly budget" }
func (*budgetCmd) Usage() string {
	return `bb budget [-income <amount> -save <percent>]

  Shows this month's spending against the available budget derived from
  the saving goal. With -income and -save, stores a new goal first.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.income, "income", 0, "Monthly income to store in the saving goal.")
	f.Float64Var(&c.save, "save", 0, "Percentage of the income to save, in (0,100].")
	f.StringVar(&c.date, "d", date.Today().String(), "Reference date for the current month.")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	if c.income != 0 || c.save != 0 {
		if c.income <= 0 || c.save <= 0 || c.save > 100 {
			fmt.Fprintln(os.Stderr, "Error: -income must be positive and -save in (0,100]")
			return subcommands.ExitUsageError
		}
		goal := budgetbook.SavingGoal{
			MonthlyIncome:    decimal.NewFromFloat(c.income),
			SavingPercentage: budgetbook.Percent(c.save),
		}
		if err := a.session.SetGoal(ctx, goal); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing saving goal: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	goal, ok := a.session.Goal()
	if !ok {
		fmt.Fprintln(os.Stderr, "No saving goal yet. Set one with: bb budget -income <amount> -save <percent>")
		return subcommands.ExitFailure
	}
	status := budgetbook.NewBudgetStatus(a.session.Snapshot(), goal, on, a.cfg.Currency)
	printMarkdown(renderer.BudgetMarkdown(goal, status))
	return subcommands.ExitSuccess
}
