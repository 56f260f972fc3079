package renderer

import (
	"strings"
	"testing"

	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/date"
	"github.com/ledgerline/budgetbook/insight"
	"github.com/shopspring/decimal"
)

func expense(id, day, category, description string, amount float64) budgetbook.Transaction {
	return budgetbook.Transaction{
		ID:          id,
		OwnerID:     "owner-1",
		Amount:      decimal.NewFromFloat(amount),
		Category:    category,
		Description: description,
		Date:        date.MustParse(day),
		Kind:        budgetbook.Expense,
	}
}

func TestTransactionsMarkdown(t *testing.T) {
	got := TransactionsMarkdown([]budgetbook.Transaction{
		expense("a", "2025-03-10", "Food", "lunch", 12.50),
	}, "USD")

	for _, want := range []string{"# Transactions (1)", "2025-03-10", "lunch", "Food", "-$12.50"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestTransactionsMarkdown_Empty(t *testing.T) {
	got := TransactionsMarkdown(nil, "USD")
	if !strings.Contains(got, "No transactions yet.") {
		t.Errorf("empty report = %q", got)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	txs := []budgetbook.Transaction{
		expense("a", "2025-03-01", "Food", "", 75),
		expense("b", "2025-03-02", "Transportation", "", 25),
	}
	totals := budgetbook.NewTotals(txs, "USD")
	got := SummaryMarkdown(totals, budgetbook.CategoryBreakdown(txs, "USD"))

	for _, want := range []string{"# Summary", "## Spending by Category", "$75.00", "75.0%", "25.0%"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestMonthlyMarkdown(t *testing.T) {
	now := date.MustParse("2025-03-15")
	got := MonthlyMarkdown(budgetbook.MonthlyRollup([]budgetbook.Transaction{
		expense("a", "2025-01-10", "Food", "", 100),
	}, 3, now, "USD"))

	for _, want := range []string{"Jan 2025", "Feb 2025", "Mar 2025", "$100.00", "$0.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestBudgetMarkdown(t *testing.T) {
	goal := budgetbook.SavingGoal{MonthlyIncome: decimal.NewFromInt(1000), SavingPercentage: 20}
	now := date.MustParse("2025-03-15")

	under := budgetbook.NewBudgetStatus([]budgetbook.Transaction{
		expense("a", "2025-03-05", "Food", "", 300),
	}, goal, now, "USD")
	got := BudgetMarkdown(goal, under)
	if !strings.Contains(got, "Remaining this month") || !strings.Contains(got, "$500.00") {
		t.Errorf("under-budget report wrong:\n%s", got)
	}

	over := budgetbook.NewBudgetStatus([]budgetbook.Transaction{
		expense("a", "2025-03-05", "Food", "", 900),
	}, goal, now, "USD")
	got = BudgetMarkdown(goal, over)
	if !strings.Contains(got, "Over budget.") {
		t.Errorf("over-budget report wrong:\n%s", got)
	}
}

func TestInsightsMarkdown(t *testing.T) {
	goals := insight.FallbackGoals(1000)
	pred := insight.Prediction{
		PredictedAmount:   420,
		Trend:             insight.TrendIncreasing,
		Confidence:        0.8,
		CategoryBreakdown: map[string]float64{"Food": 120},
	}
	got := InsightsMarkdown(goals, pred, "USD")

	for _, want := range []string{
		"$100.00", "$200.00", "$300.00", // 10/20/30 percent of the income
		"service unavailable, showing defaults",
		"$420.00", "increasing", "80%", "Food",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}
