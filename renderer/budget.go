package renderer

import (
	"bytes"

	"github.com/ledgerline/budgetbook"
	md "github.com/nao1215/markdown"
)

// BudgetMarkdown renders the current month's spending against the saving
// goal's available budget.
func BudgetMarkdown(goal budgetbook.SavingGoal, status budgetbook.BudgetStatus) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Budget")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Available Budget"), md.Bold(status.AvailableBudget.String())},
		Rows: [][]string{
			{"Saving Percentage", goal.SavingPercentage.String()},
			{"Spent This Month", status.CurrentMonthExpense.String()},
		},
	})
	if status.OverBudget {
		doc.PlainText(md.Bold("Over budget.") + " Spending this month exceeds the available budget.")
	} else {
		remaining := status.AvailableBudget.Sub(status.CurrentMonthExpense)
		doc.PlainText("Remaining this month: " + md.Bold(remaining.String()))
	}
	return doc.String()
}
