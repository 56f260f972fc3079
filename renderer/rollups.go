package renderer

import (
	"bytes"
	"fmt"

	"github.com/ledgerline/budgetbook"
	md "github.com/nao1215/markdown"
)

// MonthlyMarkdown renders the monthly expense rollup, oldest month first.
func MonthlyMarkdown(rollup []budgetbook.MonthlyExpense) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Monthly Expenses (last %d months)", len(rollup)))
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Month", "Expense"},
	}
	for _, m := range rollup {
		table.Rows = append(table.Rows, []string{m.Month, m.Amount.String()})
	}
	doc.Table(table)
	return doc.String()
}

// DailyMarkdown renders the daily expense rollup, oldest day first.
func DailyMarkdown(rollup []budgetbook.DailyExpense) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Daily Expenses")
	if len(rollup) == 0 {
		doc.PlainText("No expenses recorded.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Day", "Expense"},
	}
	for _, d := range rollup {
		table.Rows = append(table.Rows, []string{d.Day.String(), d.Amount.String()})
	}
	doc.Table(table)
	return doc.String()
}
