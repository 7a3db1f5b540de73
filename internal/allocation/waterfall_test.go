package allocation

import (
	"testing"

	"velvet/internal/core"
)

func items(amounts ...int64) []core.PlanItem {
	out := make([]core.PlanItem, len(amounts))
	for i, a := range amounts {
		out[i] = core.PlanItem{ID: string(rune('a' + i)), Amount: core.Units(a)}
	}
	return out
}

func TestAllocatePartialPool(t *testing.T) {
	got := Allocate(items(200, 300, 500), core.Units(450))

	wantApplied := []int64{200, 250, 0}
	// Percentages are computed over cents, so the expectation has to be
	// too: float64(25000)/float64(30000) and 250.0/300.0 differ by one ULP.
	wantPercent := []float64{100, float64(25000) / float64(30000) * 100, 0}
	for i, ip := range got {
		if ip.Applied != core.Units(wantApplied[i]) {
			t.Errorf("item %d applied = %v, want %d", i, ip.Applied, wantApplied[i])
		}
		if ip.Percent != wantPercent[i] {
			t.Errorf("item %d percent = %v, want %v", i, ip.Percent, wantPercent[i])
		}
	}
}

func TestAllocateOverfundedPool(t *testing.T) {
	got := Allocate(items(200, 300, 500), core.Units(1200))
	for i, want := range []int64{200, 300, 500} {
		if got[i].Applied != core.Units(want) {
			t.Errorf("item %d applied = %v, want %d", i, got[i].Applied, want)
		}
		if got[i].Percent != 100 {
			t.Errorf("item %d percent = %v, want 100", i, got[i].Percent)
		}
	}
}

func TestAllocateProperties(t *testing.T) {
	cases := []struct {
		name    string
		amounts []int64
		pool    int64
	}{
		{"partial", []int64{200, 300, 500}, 450},
		{"exact", []int64{200, 300, 500}, 1000},
		{"overflow", []int64{200, 300, 500}, 1200},
		{"empty pool", []int64{200, 300}, 0},
		{"single item", []int64{700}, 100},
		{"zero-amount item in the middle", []int64{100, 0, 200}, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			itemList := items(tc.amounts...)
			pool := core.Units(tc.pool)
			got := Allocate(itemList, pool)

			var sumApplied, sumNeeded int64
			for i, ip := range got {
				if ip.Applied.Cents > itemList[i].Amount.Cents {
					t.Errorf("item %d applied %v exceeds target %v", i, ip.Applied, itemList[i].Amount)
				}
				if ip.Applied.Cents < 0 {
					t.Errorf("item %d applied negative: %v", i, ip.Applied)
				}
				sumApplied += ip.Applied.Cents
				sumNeeded += itemList[i].Amount.Cents
			}

			// sum(applied) == min(pool, sum(targets))
			want := pool.Cents
			if sumNeeded < want {
				want = sumNeeded
			}
			if sumApplied != want {
				t.Errorf("sum(applied) = %d, want %d", sumApplied, want)
			}

			// Everything after the first underfunded item gets nothing.
			seenUnderfunded := false
			for i, ip := range got {
				if seenUnderfunded && itemList[i].Amount.Cents > 0 && ip.Applied.Cents != 0 {
					t.Errorf("item %d funded after an underfunded item", i)
				}
				if ip.Applied.Cents < itemList[i].Amount.Cents {
					seenUnderfunded = true
				}
			}

			// Pure function: a second run is identical.
			again := Allocate(itemList, pool)
			for i := range got {
				if got[i] != again[i] {
					t.Errorf("item %d differs across runs: %+v vs %+v", i, got[i], again[i])
				}
			}
		})
	}
}

func TestForPlanOverallPercent(t *testing.T) {
	plan := core.Plan{ID: "p1", Title: "Аргентина", Items: items(200, 300, 500)}

	partial := ForPlan(plan, core.Units(450))
	if partial.OverallPercent != 45 {
		t.Errorf("overall percent = %v, want 45", partial.OverallPercent)
	}
	if partial.TotalNeeded != core.Units(1000) {
		t.Errorf("total needed = %v, want 1000", partial.TotalNeeded)
	}

	capped := ForPlan(plan, core.Units(1200))
	if capped.OverallPercent != 100 {
		t.Errorf("overall percent = %v, want 100 (capped)", capped.OverallPercent)
	}

	empty := ForPlan(core.Plan{ID: "p2", Title: "Пусто"}, core.Units(500))
	if empty.OverallPercent != 0 || len(empty.Items) != 0 {
		t.Errorf("empty plan progress = %+v", empty)
	}
}

func TestForPlansShareTheFullPool(t *testing.T) {
	plans := []core.Plan{
		{ID: "p1", Title: "Аргентина", Items: items(200)},
		{ID: "p2", Title: "Европа", Items: items(200)},
	}

	// Each plan sees the entire pool; the first plan's allocation is not
	// subtracted before computing the second.
	got := ForPlans(plans, core.Units(200))
	for i, pp := range got {
		if pp.Items[0].Applied != core.Units(200) {
			t.Errorf("plan %d applied = %v, want 200", i, pp.Items[0].Applied)
		}
		if pp.OverallPercent != 100 {
			t.Errorf("plan %d overall = %v, want 100", i, pp.OverallPercent)
		}
	}
}

func TestAllocateNegativePoolClamped(t *testing.T) {
	got := Allocate(items(100), core.Cents(-500))
	if got[0].Applied.Cents != 0 || got[0].Percent != 0 {
		t.Errorf("negative pool not clamped: %+v", got[0])
	}
}
