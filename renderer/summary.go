package renderer

import (
	"bytes"
	"fmt"

	"github.com/ledgerline/budgetbook"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the totals and the per-category expense breakdown.
func SummaryMarkdown(totals budgetbook.Totals, breakdown []budgetbook.CategorySum) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Summary")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Balance"), md.Bold(totals.Balance.String())},
		Rows: [][]string{
			{"Income", totals.Income.String()},
			{"Expense", totals.Expense.String()},
		},
	})

	if len(breakdown) == 0 {
		return doc.String()
	}
	doc.H2("Spending by Category")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Category", "Amount", "Share"},
	}
	for _, c := range breakdown {
		share := ""
		if !totals.Expense.IsZero() {
			pct := c.Amount.Decimal().Div(totals.Expense.Decimal()).InexactFloat64() * 100
			share = fmt.Sprintf("%.1f%%", pct)
		}
		table.Rows = append(table.Rows, []string{c.Category, c.Amount.String(), share})
	}
	doc.Table(table)
	return doc.String()
}
