// Package allocation distributes the pooled savings balance across a
// plan's ordered goal items: the first item is funded completely before
// the next one receives anything. The result is a presentation-time
// projection recomputed from scratch, never stored, so reordering items
// or a changed pool reflows every figure with nothing to invalidate.
package allocation

import "velvet/internal/core"

type (
	// ItemProgress is the share of the pool applied to one goal item.
	ItemProgress struct {
		ItemID  string
		Applied core.Money
		Percent float64
	}

	// PlanProgress is the waterfall result for a whole plan.
	PlanProgress struct {
		PlanID         string
		Items          []ItemProgress
		TotalNeeded    core.Money
		OverallPercent float64
	}
)

// Allocate runs the waterfall over items in list order against pool.
// Applied never exceeds the item's target and the per-item percent is
// naturally bounded by that; a zero-target item receives zero and reports
// zero percent.
func Allocate(items []core.PlanItem, pool core.Money) []ItemProgress {
	remaining := pool.Cents
	if remaining < 0 {
		remaining = 0
	}

	out := make([]ItemProgress, len(items))
	for i, item := range items {
		applied := min(remaining, item.Amount.Cents)
		if applied < 0 {
			applied = 0
		}
		percent := 0.0
		if item.Amount.Cents > 0 {
			percent = float64(applied) / float64(item.Amount.Cents) * 100
		}
		out[i] = ItemProgress{ItemID: item.ID, Applied: core.Cents(applied), Percent: percent}

		remaining -= item.Amount.Cents
		if remaining < 0 {
			remaining = 0
		}
	}
	return out
}

// ForPlan runs the waterfall and adds the plan-level summary. The overall
// percent is capped at 100 since the pool may exceed the plan's total.
func ForPlan(p core.Plan, pool core.Money) PlanProgress {
	totalNeeded := p.TotalNeeded()
	overall := 0.0
	if totalNeeded.Cents > 0 {
		overall = pool.Float() / totalNeeded.Float() * 100
		if overall > 100 {
			overall = 100
		}
		if overall < 0 {
			overall = 0
		}
	}
	return PlanProgress{
		PlanID:         p.ID,
		Items:          Allocate(p.Items, pool),
		TotalNeeded:    totalNeeded,
		OverallPercent: overall,
	}
}

// ForPlans computes progress for every plan against the same pool. Plans
// do not partition the pool: each waterfall assumes it alone has access
// to the entire savings balance.
func ForPlans(plans []core.Plan, pool core.Money) []PlanProgress {
	out := make([]PlanProgress, len(plans))
	for i, p := range plans {
		out[i] = ForPlan(p, pool)
	}
	return out
}
