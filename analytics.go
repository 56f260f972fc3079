package budgetbook

import (
	"slices"
	"strings"

	"github.com/ledgerline/budgetbook/date"
)

// The analytics aggregator. All functions in this file are pure over a
// ledger snapshot: they take the transactions and an explicit reference date
// where "now" matters, so that every derived view is reproducible. The
// display currency only affects how the sums are formatted, never the
// arithmetic.

// Totals sums the ledger per kind.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money // Income − Expense
}

// NewTotals computes income, expense and balance over a snapshot.
func NewTotals(txs []Transaction, currency string) Totals {
	income, expense := M(0, currency), M(0, currency)
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			income = income.Add(M(tx.Amount, currency))
		case Expense:
			expense = expense.Add(M(tx.Amount, currency))
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// CategorySum is the expense total of a single category.
type CategorySum struct {
	Category string
	Amount   Money
}

// CategoryBreakdown sums expense transactions per category. The result is
// ordered by amount descending, ties broken by category name, so repeated
// computations over the same snapshot render identically.
func CategoryBreakdown(txs []Transaction, currency string) []CategorySum {
	sums := make(map[string]Money)
	for _, tx := range txs {
		if tx.Kind != Expense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(M(tx.Amount, currency))
	}
	out := make([]CategorySum, 0, len(sums))
	for cat, sum := range sums {
		out = append(out, CategorySum{Category: cat, Amount: sum})
	}
	slices.SortFunc(out, func(a, b CategorySum) int {
		if a.Amount.GreaterThan(b.Amount) {
			return -1
		}
		if b.Amount.GreaterThan(a.Amount) {
			return 1
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// MonthlyExpense is one bucket of the monthly rollup.
type MonthlyExpense struct {
	Month  string // month label, e.g. "Jan 2025"; unambiguous across years
	Range  date.Range
	Amount Money
}

// MonthlyRollup buckets expense sums into the last windowMonths calendar
// months ending at the month of now, in chronological order. Months with no
// expense transaction are present with a zero sum.
func MonthlyRollup(txs []Transaction, windowMonths int, now date.Date, currency string) []MonthlyExpense {
	months := date.Months(now, windowMonths)
	out := make([]MonthlyExpense, len(months))
	for i, r := range months {
		out[i] = MonthlyExpense{Month: r.From.Format("Jan 2006"), Range: r, Amount: M(0, currency)}
	}
	for _, tx := range txs {
		if tx.Kind != Expense {
			continue
		}
		for i := range out {
			if out[i].Range.Contains(tx.Date) {
				out[i].Amount = out[i].Amount.Add(M(tx.Amount, currency))
				break
			}
		}
	}
	return out
}

// DailyExpense is one bucket of the daily rollup.
type DailyExpense struct {
	Day    date.Date
	Amount Money
}

// DailyRollup groups expense sums by calendar day, sorted by the underlying
// date value ascending (not by any formatted label).
func DailyRollup(txs []Transaction, currency string) []DailyExpense {
	sums := make(map[date.Date]Money)
	for _, tx := range txs {
		if tx.Kind != Expense {
			continue
		}
		sums[tx.Date] = sums[tx.Date].Add(M(tx.Amount, currency))
	}
	out := make([]DailyExpense, 0, len(sums))
	for day, sum := range sums {
		out = append(out, DailyExpense{Day: day, Amount: sum})
	}
	slices.SortFunc(out, func(a, b DailyExpense) int { return a.Day.Compare(b.Day) })
	return out
}

// BudgetStatus reports the current month's spending against the available
// budget derived from the saving goal. It is recomputed whenever the ledger
// or the goal changes.
type BudgetStatus struct {
	AvailableBudget     Money
	CurrentMonthExpense Money
	OverBudget          bool
}

// NewBudgetStatus sums expense transactions dated on or after the first day
// of the month of now, and compares them against the goal's available
// budget. The comparison is strict: spending exactly the available budget is
// not over budget.
func NewBudgetStatus(txs []Transaction, goal SavingGoal, now date.Date, currency string) BudgetStatus {
	first := now.StartOf(date.Monthly)
	spent := M(0, currency)
	for _, tx := range txs {
		if tx.Kind != Expense || tx.Date.Before(first) {
			continue
		}
		spent = spent.Add(M(tx.Amount, currency))
	}
	available := M(goal.AvailableBudget(), currency)
	return BudgetStatus{
		AvailableBudget:     available,
		CurrentMonthExpense: spent,
		OverBudget:          spent.GreaterThan(available),
	}
}

// MonthlyIncome estimates the principal's monthly income as the average of
// the three most recent income transactions. It feeds the saving-goal
// recommendation when no explicit goal record exists.
func MonthlyIncome(txs []Transaction, currency string) Money {
	// txs come from Ledger.Snapshot, already ordered by date descending.
	recent := make([]Transaction, 0, 3)
	for _, tx := range txs {
		if tx.Kind != Income {
			continue
		}
		recent = append(recent, tx)
		if len(recent) == 3 {
			break
		}
	}
	if len(recent) == 0 {
		return M(0, currency)
	}
	total := M(0, currency)
	for _, tx := range recent {
		total = total.Add(M(tx.Amount, currency))
	}
	return M(total.Decimal().Div(newDecimal(len(recent))), currency)
}
