package renderer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/insight"
	md "github.com/nao1215/markdown"
)

// InsightsMarkdown renders the recommended saving goals and the next month's
// expense prediction. Fallback values render the same way as real ones; the
// advice lines carry the distinction.
func InsightsMarkdown(goals insight.Goals, pred insight.Prediction, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Insights")
	doc.H2("Recommended Saving Goals")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Horizon", "Monthly Amount"},
		Rows: [][]string{
			{"Short term", budgetbook.M(goals.ShortTerm, currency).String()},
			{"Medium term", budgetbook.M(goals.MediumTerm, currency).String()},
			{"Long term", budgetbook.M(goals.LongTerm, currency).String()},
		},
	})
	if len(goals.Advice) > 0 {
		doc.BulletList(goals.Advice...)
	}

	doc.H2("Next Month")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Predicted Expense"), md.Bold(budgetbook.M(pred.PredictedAmount, currency).String())},
		Rows: [][]string{
			{"Trend", pred.Trend},
			{"Confidence", fmt.Sprintf("%.0f%%", pred.Confidence*100)},
		},
	})
	if len(pred.CategoryBreakdown) > 0 {
		cats := make([]string, 0, len(pred.CategoryBreakdown))
		for cat := range pred.CategoryBreakdown {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Category", "Predicted"},
		}
		for _, cat := range cats {
			table.Rows = append(table.Rows, []string{cat, budgetbook.M(pred.CategoryBreakdown[cat], currency).String()})
		}
		doc.Table(table)
	}
	return doc.String()
}
