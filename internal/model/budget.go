package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the nominal cadence of a budget.
type BudgetPeriod string

// Budget periods.
const (
	PeriodDaily   BudgetPeriod = "DAILY"
	PeriodWeekly  BudgetPeriod = "WEEKLY"
	PeriodMonthly BudgetPeriod = "MONTHLY"
	PeriodYearly  BudgetPeriod = "YEARLY"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget caps spending in one category over a window.
type Budget struct {
	StartDate time.Time
	EndDate   *time.Time // nil means open-ended
	ID        string
	UserID    string
	Category  string
	Period    BudgetPeriod
	Amount    decimal.Decimal
}

// Covers reports whether t falls inside the budget window.
func (b *Budget) Covers(t time.Time) bool {
	if t.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !t.After(*b.EndDate)
}

// WindowEnd returns the end of the budget window, or now for open-ended budgets.
func (b *Budget) WindowEnd(now time.Time) time.Time {
	if b.EndDate == nil {
		return now
	}
	return *b.EndDate
}
