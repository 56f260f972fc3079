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

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	amount      float64
	category    string
	description string
	date        string
	kind        string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a new transaction" }
func (*addCmd) Usage() string {
	return `bb add -a <amount> [-c <category>] [-m <description>] [-d <date>] [-k income|expense]

  Records a transaction. The amount is always positive; the direction is
  given by -k. When -c is omitted the category is suggested from the
  description.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.amount, "a", 0, "Amount, strictly positive.")
	f.StringVar(&c.category, "c", "", "Category. Suggested from the description when omitted.")
	f.StringVar(&c.description, "m", "", "Description of the transaction.")
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the transaction.")
	f.StringVar(&c.kind, "k", "expense", "Kind of transaction: income or expense.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	kind, err := budgetbook.ParseKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.amount <= 0 {
		fmt.Fprintln(os.Stderr, "Error: amount must be strictly positive")
		return subcommands.ExitUsageError
	}

	category := c.category
	if category == "" && kind == budgetbook.Expense {
		if s, ok := budgetbook.Classify(c.description); ok {
			category = s.Category
			fmt.Fprintf(os.Stderr, "Using suggested category %q\n", category)
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	confirmed, err := a.session.Add(ctx, budgetbook.Transaction{
		Amount:      decimal.NewFromFloat(c.amount),
		Category:    category,
		Description: c.description,
		Date:        on,
		Kind:        kind,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s %s (%s) as %s\n", confirmed.Kind, budgetbook.M(confirmed.Amount, a.cfg.Currency), confirmed.Category, confirmed.ID)
	return subcommands.ExitSuccess
}

// rmCmd holds the flags for the 'rm' subcommand.
type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a transaction by id" }
func (*rmCmd) Usage() string {
	return `bb rm <id>

  Deletes the transaction with the given id.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: rm takes exactly one transaction id")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	id := f.Arg(0)
	if err := a.session.Remove(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting transaction %q: %v\n", id, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted %s\n", id)
	return subcommands.ExitSuccess
}

// listCmd holds the flags for the 'list' subcommand.
type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the transactions, most recent first" }
func (*listCmd) Usage() string {
	return `bb list

  Lists all transactions of the current principal, most recent first.
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close(ctx)

	printMarkdown(renderer.TransactionsMarkdown(a.session.Snapshot(), a.cfg.Currency))
	return subcommands.ExitSuccess
}
