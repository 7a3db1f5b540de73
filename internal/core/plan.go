package core

import "strings"

type (
	// PlanItem is one line of a savings plan. Its position in the plan's
	// item list is its funding priority.
	PlanItem struct {
		ID     string `json:"id"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}

	// Plan is an ordered list of goal items under a title, e.g. a trip.
	Plan struct {
		ID    string     `json:"id"`
		Title string     `json:"title"`
		Items []PlanItem `json:"items"`
		Color string     `json:"color"`
	}
)

// DefaultItemLabel is the label given to a freshly added plan item.
const DefaultItemLabel = "Новый пункт"

// Validate checks a plan item: a zero amount is allowed (the item is
// simply never funded), a negative one is not.
func (i PlanItem) Validate() error {
	if i.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	for _, item := range p.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TotalNeeded is the sum of all item targets in the plan.
func (p Plan) TotalNeeded() Money {
	var total Money
	for _, item := range p.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// Clone returns a deep copy; the item slice is never shared.
func (p Plan) Clone() Plan {
	out := p
	out.Items = append([]PlanItem(nil), p.Items...)
	return out
}

// ClonePlans deep-copies a plan collection.
func ClonePlans(plans []Plan) []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		out[i] = p.Clone()
	}
	return out
}
