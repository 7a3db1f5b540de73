// Package goals holds the ordered collection of savings plans. Item
// order inside a plan is funding priority for the waterfall, so new
// items are appended and join at the lowest priority.
package goals

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"velvet/internal/core"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrItemNotFound = errors.New("plan item not found")
)

// ItemPatch updates only the fields that are set.
type ItemPatch struct {
	Label  *string
	Amount *core.Money
}

type Store struct {
	mu    sync.Mutex
	plans []core.Plan
}

// NewStore starts from the given plans, typically loaded state or
// DefaultPlans.
func NewStore(plans []core.Plan) *Store {
	return &Store{plans: core.ClonePlans(plans)}
}

// DefaultPlans is the seed used when no stored plans exist.
func DefaultPlans() []core.Plan {
	return []core.Plan{
		{
			ID:    "p1",
			Title: "Аргентина 🇦🇷",
			Color: "bg-indigo-600",
			Items: []core.PlanItem{
				{ID: "i1", Label: "Билеты", Amount: core.Units(15000)},
				{ID: "i2", Label: "Жилье", Amount: core.Units(12000)},
			},
		},
		{
			ID:    "p2",
			Title: "Европа 🇪🇺",
			Color: "bg-emerald-500",
			Items: []core.PlanItem{
				{ID: "i3", Label: "Тур", Amount: core.Units(20000)},
			},
		},
		{
			ID:    "p3",
			Title: "Украина (Квартира) 🏠",
			Color: "bg-slate-800",
			Items: []core.PlanItem{
				{ID: "i4", Label: "Первый взнос", Amount: core.Units(500000)},
			},
		},
	}
}

// Plans returns a deep copy of the collection in order.
func (s *Store) Plans() []core.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ClonePlans(s.plans)
}

// Replace swaps the whole collection, used at load time and when a
// remote snapshot is adopted.
func (s *Store) Replace(plans []core.Plan) {
	copied := core.ClonePlans(plans)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = copied
}

// UpdatePlanTitle renames a plan.
func (s *Store) UpdatePlanTitle(planID, title string) error {
	if strings.TrimSpace(title) == "" {
		return core.ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(planID)
	if p == nil {
		return ErrPlanNotFound
	}
	p.Title = title
	return nil
}

// AddItem appends a new item to the plan, giving it the lowest waterfall
// priority. An empty label gets the default one.
func (s *Store) AddItem(planID, label string, amount core.Money) (core.PlanItem, error) {
	if label == "" {
		label = core.DefaultItemLabel
	}
	item := core.PlanItem{ID: uuid.NewString(), Label: label, Amount: amount}
	if err := item.Validate(); err != nil {
		return core.PlanItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(planID)
	if p == nil {
		return core.PlanItem{}, ErrPlanNotFound
	}
	p.Items = append(p.Items, item)
	return item, nil
}

// UpdateItem applies the patch to one item, leaving its position (and so
// its priority) unchanged.
func (s *Store) UpdateItem(planID, itemID string, patch ItemPatch) (core.PlanItem, error) {
	if patch.Amount != nil && patch.Amount.Cents < 0 {
		return core.PlanItem{}, core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(planID)
	if p == nil {
		return core.PlanItem{}, ErrPlanNotFound
	}
	for i := range p.Items {
		if p.Items[i].ID != itemID {
			continue
		}
		if patch.Label != nil {
			p.Items[i].Label = *patch.Label
		}
		if patch.Amount != nil {
			p.Items[i].Amount = *patch.Amount
		}
		return p.Items[i], nil
	}
	return core.PlanItem{}, ErrItemNotFound
}

// RemoveItem deletes one item immediately; there is no soft delete.
func (s *Store) RemoveItem(planID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(planID)
	if p == nil {
		return ErrPlanNotFound
	}
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// TotalTarget sums every item target across all plans.
func (s *Store) TotalTarget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, p := range s.plans {
		total = total.Add(p.TotalNeeded())
	}
	return total
}

// find returns a pointer into s.plans; caller must hold s.mu.
func (s *Store) find(planID string) *core.Plan {
	for i := range s.plans {
		if s.plans[i].ID == planID {
			return &s.plans[i]
		}
	}
	return nil
}
