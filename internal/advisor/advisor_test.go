package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"velvet/internal/core"
)

func testLedger() []core.Transaction {
	d, _ := core.ParseDate("2024-03-10")
	return []core.Transaction{
		{ID: "t1", Amount: core.Units(400), Category: core.CategoryFood, Date: d, User: core.UserMaria, Type: core.Expense},
		{ID: "t2", Amount: core.Units(100), Category: core.CategoryFood, Date: d, User: core.UserMaria, Type: core.Expense},
		{ID: "t3", Amount: core.Units(900), Category: core.CategoryRent, Date: d, User: core.UserShared, Type: core.Expense},
		{ID: "t4", Amount: core.Units(250), Category: core.CategorySavings, Date: d, User: core.UserVictoria, Type: core.Expense},
		{ID: "t5", Amount: core.Units(5000), Category: core.CategoryIncome, Date: d, User: core.UserVictoria, Type: core.Income},
	}
}

func stubAdvisor(fn completionFn) *Advisor {
	a := New("", "", nil)
	a.complete = fn
	return a
}

func TestAdviseNotConfigured(t *testing.T) {
	a := New("", "", nil)
	if got := a.Advise(context.Background(), testLedger()); got != MsgNotConfigured {
		t.Errorf("Advise without key = %q, want MsgNotConfigured", got)
	}
}

func TestAdviseFallbackMessages(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		want   string
	}{
		{name: "model answers", answer: "Отличная дисциплина!", want: "Отличная дисциплина!"},
		{name: "whitespace answer", answer: "  \n ", want: MsgEmpty},
		{name: "invalid key", err: errors.New("invalid API key provided"), want: MsgBadKey},
		{name: "unauthorized status", err: errors.New("status code: 401"), want: MsgBadKey},
		{name: "network down", err: errors.New("dial tcp: connection refused"), want: MsgUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := stubAdvisor(func(ctx context.Context, model, prompt string) (string, error) {
				return tt.answer, tt.err
			})
			if got := a.Advise(context.Background(), testLedger()); got != tt.want {
				t.Errorf("Advise = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdviseCachesByLedgerState(t *testing.T) {
	calls := 0
	a := stubAdvisor(func(ctx context.Context, model, prompt string) (string, error) {
		calls++
		return "совет", nil
	})

	ledger := testLedger()
	a.Advise(context.Background(), ledger)
	a.Advise(context.Background(), ledger)
	if calls != 1 {
		t.Errorf("identical ledger should hit the cache, got %d calls", calls)
	}

	d, _ := core.ParseDate("2024-03-11")
	ledger = append(ledger, core.Transaction{
		ID: "t6", Amount: core.Units(70), Category: core.CategoryGas, Date: d, User: core.UserMaria, Type: core.Expense,
	})
	a.Advise(context.Background(), ledger)
	if calls != 2 {
		t.Errorf("changed ledger should bypass the cache, got %d calls", calls)
	}
}

func TestAdviseDoesNotCacheFailures(t *testing.T) {
	calls := 0
	a := stubAdvisor(func(ctx context.Context, model, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("temporarily overloaded")
		}
		return "совет", nil
	})

	ledger := testLedger()
	if got := a.Advise(context.Background(), ledger); got != MsgUnavailable {
		t.Fatalf("first call = %q, want MsgUnavailable", got)
	}
	if got := a.Advise(context.Background(), ledger); got != "совет" {
		t.Errorf("retry after failure = %q, want fresh answer", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(testLedger())

	if !strings.Contains(prompt, "Мария-Еда: 500") {
		t.Errorf("prompt should aggregate per user and category:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Общее-Аренда: 900") {
		t.Errorf("prompt missing shared rent line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "НАКОПЛЕНИЯ (Wise): 250 kr") {
		t.Errorf("prompt missing savings balance:\n%s", prompt)
	}
	if strings.Contains(prompt, "Накопления") {
		t.Error("savings category should not appear among expenses")
	}
	if strings.Contains(prompt, "Доход") {
		t.Error("income should not appear among expenses")
	}

	// Deterministic for equal input, the cache depends on it
	if prompt != buildPrompt(testLedger()) {
		t.Error("equal ledgers must produce identical prompts")
	}
}
