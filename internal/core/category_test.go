package core

import (
	"errors"
	"testing"
)

func TestCategorySetIsClosed(t *testing.T) {
	if len(Categories) != 20 {
		t.Fatalf("expected 20 categories, got %d", len(Categories))
	}

	seen := map[Category]bool{}
	for _, c := range Categories {
		if seen[c] {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = true
		if !c.IsValid() {
			t.Errorf("listed category %q not valid", c)
		}
		if c.Color() == defaultCategoryColor {
			t.Errorf("category %q has no dedicated color", c)
		}
	}
}

func TestExpenseCategoriesExcludeIncome(t *testing.T) {
	for _, c := range ExpenseCategories() {
		if c == CategoryIncome {
			t.Fatal("Income listed among expense categories")
		}
	}
	if got := len(ExpenseCategories()); got != len(Categories)-1 {
		t.Errorf("expected %d expense categories, got %d", len(Categories)-1, got)
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("Накопления"); err != nil || c != CategorySavings {
		t.Errorf("ParseCategory(Накопления) = %v, %v", c, err)
	}
	if _, err := ParseCategory("Gadgets"); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestUnknownCategoryColor(t *testing.T) {
	if got := Category("???").Color(); got != defaultCategoryColor {
		t.Errorf("unknown category color = %q", got)
	}
}
