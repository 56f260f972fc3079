package renderer

import (
	"bytes"
	"fmt"

	"github.com/ledgerline/budgetbook"
	md "github.com/nao1215/markdown"
)

// TransactionsMarkdown renders the ledger content as a table, most recent
// first (the order of Ledger.Snapshot).
func TransactionsMarkdown(txs []budgetbook.Transaction, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Transactions (%d)", len(txs)))
	if len(txs) == 0 {
		doc.PlainText("No transactions yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
		},
		Header: []string{"Date", "Description", "Category", "Kind", "Amount"},
	}
	for _, tx := range txs {
		amount := budgetbook.M(tx.Amount, currency).String()
		if tx.Kind == budgetbook.Expense {
			amount = "-" + amount
		}
		table.Rows = append(table.Rows, []string{
			tx.Date.String(),
			tx.Description,
			tx.Category,
			tx.Kind.String(),
			amount,
		})
	}
	doc.Table(table)
	return doc.String()
}
