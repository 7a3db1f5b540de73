// Package report derives read-only summaries from the transaction log.
// Every function is pure: it takes the full collection plus a reference
// period and recomputes from scratch, so callers are free to rerun after
// each mutation instead of maintaining incremental sums.
package report

import (
	"fmt"
	"time"

	"velvet/internal/core"
)

type (
	// MonthTotals are the month-local figures: Balance here is that
	// month's income minus expense, not the lifetime balance.
	MonthTotals struct {
		Income     core.Money
		Expense    core.Money
		SavingsOut core.Money
		Balance    core.Money
	}

	// CategoryTotal is one row of the per-category expense breakdown.
	CategoryTotal struct {
		Category core.Category
		Total    core.Money
	}

	// DayActivity marks a calendar day for rendering: it records whether
	// any income or expense entry exists on that day, not how much.
	DayActivity struct {
		HasIncome  bool
		HasExpense bool
	}

	// MonthStat is one point of a year overview series.
	MonthStat struct {
		Month   time.Month
		Income  core.Money
		Expense core.Money
		Savings core.Money
	}
)

// MonthlyBalance returns the cumulative lifetime balance as of the end of
// the given month: income minus expense over every transaction dated on
// or before the month's last day. It is not the month's net.
func MonthlyBalance(txs []core.Transaction, year int, month time.Month) core.Money {
	var balance core.Money
	for _, t := range txs {
		if !t.Date.OnOrBeforeMonthEnd(year, month) {
			continue
		}
		switch t.Type {
		case core.Income:
			balance = balance.Add(t.Amount)
		case core.Expense:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}

// MonthlyTotals sums only the transactions dated within the given month.
func MonthlyTotals(txs []core.Transaction, year int, month time.Month) MonthTotals {
	var totals MonthTotals
	for _, t := range txs {
		if !t.Date.InMonth(year, month) {
			continue
		}
		switch t.Type {
		case core.Income:
			totals.Income = totals.Income.Add(t.Amount)
		case core.Expense:
			totals.Expense = totals.Expense.Add(t.Amount)
			if t.Category == core.CategorySavings {
				totals.SavingsOut = totals.SavingsOut.Add(t.Amount)
			}
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

// CategoryBreakdown groups the month's expenses by category and sorts the
// result by total, largest first. Ties keep first-appearance order.
func CategoryBreakdown(txs []core.Transaction, year int, month time.Month) []CategoryTotal {
	sums := map[core.Category]int64{}
	var order []core.Category
	for _, t := range txs {
		if t.Type != core.Expense || !t.Date.InMonth(year, month) {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryTotal{Category: c, Total: core.Cents(sums[c])})
	}
	// Insertion sort keeps equal totals stable in first-appearance order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Total.Cents > out[j-1].Total.Cents; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// TotalSavingsToDate is the lifetime savings pool: the sum of every
// expense ever categorized as Savings, across all months. This figure
// feeds the waterfall allocator.
func TotalSavingsToDate(txs []core.Transaction) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Type == core.Expense && t.Category == core.CategorySavings {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// ActivityOn reports whether any income or expense entry falls on the
// given calendar day.
func ActivityOn(txs []core.Transaction, day core.Date) DayActivity {
	var act DayActivity
	for _, t := range txs {
		if !t.Date.Equal(day) {
			continue
		}
		switch t.Type {
		case core.Income:
			act.HasIncome = true
		case core.Expense:
			act.HasExpense = true
		}
		if act.HasIncome && act.HasExpense {
			break
		}
	}
	return act
}

// YearOverview returns one MonthStat per calendar month of the year, in
// January..December order, for chart-style consumers.
func YearOverview(txs []core.Transaction, year int) []MonthStat {
	stats := make([]MonthStat, 12)
	for i := range stats {
		stats[i].Month = time.Month(i + 1)
	}
	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		s := &stats[int(t.Date.Month())-1]
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
			if t.Category == core.CategorySavings {
				s.Savings = s.Savings.Add(t.Amount)
			}
		}
	}
	return stats
}

// CarryOver builds the synthetic transaction that moves a month's net
// balance onto the first day of the following month: a positive balance
// becomes income, a negative one an unforeseen expense. The second return
// is false when the month closed exactly at zero.
func CarryOver(txs []core.Transaction, year int, month time.Month) (core.Transaction, bool) {
	balance := MonthlyTotals(txs, year, month).Balance
	if balance.IsZero() {
		return core.Transaction{}, false
	}

	nextYear, nextMonth := year, month+1
	if nextMonth > time.December {
		nextYear, nextMonth = year+1, time.January
	}

	t := core.Transaction{
		Amount: balance,
		Date:   core.NewDate(nextYear, nextMonth, 1),
		User:   core.UserShared,
		Note:   fmt.Sprintf("Перенос из %d/%d", int(month), year),
	}
	if balance.Cents > 0 {
		t.Type = core.Income
		t.Category = core.CategoryIncome
	} else {
		t.Type = core.Expense
		t.Category = core.CategoryUnforeseen
		t.Amount = core.Cents(-balance.Cents)
	}
	return t, true
}
