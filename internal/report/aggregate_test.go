package report

import (
	"testing"
	"time"

	"velvet/internal/core"
)

func tx(id string, amount int64, cat core.Category, date string, typ core.EntryType) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:       id,
		Amount:   core.Units(amount),
		Category: cat,
		Date:     d,
		User:     core.UserMaria,
		Type:     typ,
	}
}

func TestMonthlyTotalsScenario(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
		tx("2", 400, core.CategoryFood, "2024-01-10", core.Expense),
	}

	got := MonthlyTotals(txs, 2024, time.January)
	if got.Income != core.Units(1000) {
		t.Errorf("income = %v, want 1000", got.Income)
	}
	if got.Expense != core.Units(400) {
		t.Errorf("expense = %v, want 400", got.Expense)
	}
	if !got.SavingsOut.IsZero() {
		t.Errorf("savingsOut = %v, want 0", got.SavingsOut)
	}
	if got.Balance != core.Units(600) {
		t.Errorf("balance = %v, want 600", got.Balance)
	}
}

func TestMonthlyTotalsBalanceIdentity(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 2000, core.CategoryIncome, "2024-03-01", core.Income),
		tx("2", 300, core.CategoryFood, "2024-03-02", core.Expense),
		tx("3", 500, core.CategorySavings, "2024-03-03", core.Expense),
		tx("4", 100, core.CategoryGas, "2024-03-28", core.Expense),
	}
	got := MonthlyTotals(txs, 2024, time.March)
	if got.Balance != got.Income.Sub(got.Expense) {
		t.Errorf("balance %v != income %v - expense %v", got.Balance, got.Income, got.Expense)
	}
	if got.SavingsOut != core.Units(500) {
		t.Errorf("savingsOut = %v, want 500", got.SavingsOut)
	}
	if got.SavingsOut.Cents > got.Expense.Cents {
		t.Error("savingsOut must be a subset of expense")
	}
}

func TestMonthlyTotalsIgnoresOtherMonths(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
		tx("2", 100, core.CategoryFood, "2024-02-01", core.Expense),
	}
	got := MonthlyTotals(txs, 2024, time.February)
	if !got.Income.IsZero() || got.Expense != core.Units(100) {
		t.Errorf("unexpected totals for February: %+v", got)
	}
}

func TestMonthlyBalanceIsCumulative(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
		tx("2", 400, core.CategoryFood, "2024-01-10", core.Expense),
		tx("3", 700, core.CategoryIncome, "2024-02-03", core.Income),
		tx("4", 900, core.CategoryTravel, "2024-02-20", core.Expense),
		tx("5", 50, core.CategoryFood, "2024-03-01", core.Expense),
	}

	// Direct recomputation per month end, not assumed monotonic: February
	// dips because its expense exceeds its income.
	cases := []struct {
		month time.Month
		want  int64
	}{
		{time.January, 600},
		{time.February, 400},
		{time.March, 350},
		{time.December, 350},
	}
	for _, tc := range cases {
		if got := MonthlyBalance(txs, 2024, tc.month); got != core.Units(tc.want) {
			t.Errorf("MonthlyBalance(%v) = %v, want %d", tc.month, got, tc.want)
		}
	}

	// A month before any activity has a zero lifetime balance.
	if got := MonthlyBalance(txs, 2023, time.December); !got.IsZero() {
		t.Errorf("balance before first entry = %v, want 0", got)
	}
}

func TestCategoryBreakdownSortedDescending(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 100, core.CategoryFood, "2024-01-02", core.Expense),
		tx("2", 300, core.CategoryRent, "2024-01-03", core.Expense),
		tx("3", 200, core.CategoryFood, "2024-01-04", core.Expense),
		tx("4", 300, core.CategoryGas, "2024-01-05", core.Expense),
		tx("5", 999, core.CategoryIncome, "2024-01-06", core.Income),
		tx("6", 500, core.CategoryFood, "2023-12-31", core.Expense), // other month
	}

	got := CategoryBreakdown(txs, 2024, time.January)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(got), got)
	}

	// Food 300, Rent 300, Gas 300: all tie at 300, stable in first-seen
	// order (Food, Rent, Gas).
	wantOrder := []core.Category{core.CategoryFood, core.CategoryRent, core.CategoryGas}
	var sum int64
	for i, row := range got {
		if row.Category != wantOrder[i] {
			t.Errorf("row %d = %q, want %q", i, row.Category, wantOrder[i])
		}
		if i > 0 && row.Total.Cents > got[i-1].Total.Cents {
			t.Error("breakdown not sorted descending")
		}
		sum += row.Total.Cents
	}

	if month := MonthlyTotals(txs, 2024, time.January); sum != month.Expense.Cents {
		t.Errorf("breakdown sum %d != month expense %d", sum, month.Expense.Cents)
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	if got := CategoryBreakdown(nil, 2024, time.January); len(got) != 0 {
		t.Errorf("expected empty breakdown, got %+v", got)
	}
}

func TestTotalSavingsToDate(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 500, core.CategorySavings, "2023-11-01", core.Expense),
		tx("2", 300, core.CategorySavings, "2024-01-15", core.Expense),
		tx("3", 100, core.CategoryFood, "2024-01-16", core.Expense),
		tx("4", 900, core.CategoryIncome, "2024-01-17", core.Income),
	}
	if got := TotalSavingsToDate(txs); got != core.Units(800) {
		t.Errorf("TotalSavingsToDate = %v, want 800", got)
	}
	if got := TotalSavingsToDate(nil); !got.IsZero() {
		t.Errorf("empty ledger savings = %v, want 0", got)
	}
}

func TestActivityOn(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
		tx("2", 400, core.CategoryFood, "2024-01-05", core.Expense),
		tx("3", 100, core.CategoryFood, "2024-01-06", core.Expense),
	}

	both := ActivityOn(txs, core.NewDate(2024, time.January, 5))
	if !both.HasIncome || !both.HasExpense {
		t.Errorf("expected both markers on Jan 5, got %+v", both)
	}
	exp := ActivityOn(txs, core.NewDate(2024, time.January, 6))
	if exp.HasIncome || !exp.HasExpense {
		t.Errorf("expected expense-only marker on Jan 6, got %+v", exp)
	}
	none := ActivityOn(txs, core.NewDate(2024, time.January, 7))
	if none.HasIncome || none.HasExpense {
		t.Errorf("expected no markers on Jan 7, got %+v", none)
	}
}

func TestYearOverview(t *testing.T) {
	txs := []core.Transaction{
		tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
		tx("2", 200, core.CategorySavings, "2024-01-06", core.Expense),
		tx("3", 300, core.CategoryFood, "2024-06-10", core.Expense),
		tx("4", 999, core.CategoryIncome, "2023-06-10", core.Income), // other year
	}
	stats := YearOverview(txs, 2024)
	if len(stats) != 12 {
		t.Fatalf("expected 12 months, got %d", len(stats))
	}
	jan := stats[0]
	if jan.Income != core.Units(1000) || jan.Expense != core.Units(200) || jan.Savings != core.Units(200) {
		t.Errorf("january stats %+v", jan)
	}
	jun := stats[5]
	if !jun.Income.IsZero() || jun.Expense != core.Units(300) {
		t.Errorf("june stats %+v", jun)
	}
}

func TestCarryOver(t *testing.T) {
	t.Run("positive balance becomes income", func(t *testing.T) {
		txs := []core.Transaction{
			tx("1", 1000, core.CategoryIncome, "2024-01-05", core.Income),
			tx("2", 400, core.CategoryFood, "2024-01-10", core.Expense),
		}
		got, ok := CarryOver(txs, 2024, time.January)
		if !ok {
			t.Fatal("expected a carry-over transaction")
		}
		if got.Type != core.Income || got.Category != core.CategoryIncome {
			t.Errorf("unexpected type/category: %s/%s", got.Type, got.Category)
		}
		if got.Amount != core.Units(600) {
			t.Errorf("amount = %v, want 600", got.Amount)
		}
		if got.Date.String() != "2024-02-01" {
			t.Errorf("date = %s, want 2024-02-01", got.Date)
		}
	})

	t.Run("negative balance becomes unforeseen expense", func(t *testing.T) {
		txs := []core.Transaction{
			tx("1", 100, core.CategoryIncome, "2024-12-05", core.Income),
			tx("2", 400, core.CategoryFood, "2024-12-10", core.Expense),
		}
		got, ok := CarryOver(txs, 2024, time.December)
		if !ok {
			t.Fatal("expected a carry-over transaction")
		}
		if got.Type != core.Expense || got.Category != core.CategoryUnforeseen {
			t.Errorf("unexpected type/category: %s/%s", got.Type, got.Category)
		}
		if got.Amount != core.Units(300) {
			t.Errorf("amount = %v, want 300", got.Amount)
		}
		if got.Date.String() != "2025-01-01" {
			t.Errorf("date = %s, want 2025-01-01 (year rollover)", got.Date)
		}
	})

	t.Run("zero balance carries nothing", func(t *testing.T) {
		if _, ok := CarryOver(nil, 2024, time.January); ok {
			t.Error("expected no carry-over for an empty month")
		}
	})
}
