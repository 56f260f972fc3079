package budgetbook

import "github.com/shopspring/decimal"

// SavingGoal holds a principal's saving settings. There is exactly one
// record per owner; writes are upserts with last-write-wins semantics.
type SavingGoal struct {
	OwnerID          string
	MonthlyIncome    decimal.Decimal // positive magnitude, in the display currency
	SavingPercentage Percent         // in (0,100]
}

// AvailableBudget derives the spendable part of the monthly income:
// monthly_income × (1 − saving_percentage/100).
func (g SavingGoal) AvailableBudget() decimal.Decimal {
	keep := decimal.NewFromFloat(1 - float64(g.SavingPercentage)/100)
	return g.MonthlyIncome.Mul(keep)
}
