package planner

import (
	"reflect"
	"testing"

	"stylist_server/config"
	"stylist_server/core/domain"
)

func slotIDs(plan domain.SlotPlan) []domain.Slot {
	ids := make([]domain.Slot, 0, len(plan))
	for _, e := range plan {
		ids = append(ids, e.SlotID)
	}
	return ids
}

func TestBuild(t *testing.T) {
	vocab := config.DefaultVocabulary()

	tests := []struct {
		name     string
		intent   domain.ShoppingIntent
		expected []domain.Slot
	}{
		{
			name:     "no slots, not full",
			intent:   domain.ShoppingIntent{},
			expected: []domain.Slot{domain.SlotTop, domain.SlotBottom},
		},
		{
			name:     "no slots, full outfit",
			intent:   domain.ShoppingIntent{NeedsFullOutfit: true},
			expected: []domain.Slot{domain.SlotTop, domain.SlotBottom, domain.SlotAccessory, domain.SlotFootwear},
		},
		{
			name:     "additional maps to footwear",
			intent:   domain.ShoppingIntent{RequestedSlots: []domain.Slot{domain.SlotTop, domain.SlotAdditional, domain.SlotFootwear}},
			expected: []domain.Slot{domain.SlotTop, domain.SlotFootwear},
		},
		{
			name:     "unknown slots dropped, empty plan forced",
			intent:   domain.ShoppingIntent{RequestedSlots: []domain.Slot{"cape", "socks"}},
			expected: []domain.Slot{domain.SlotTop, domain.SlotBottom},
		},
		{
			name:     "dress with full outfit",
			intent:   domain.ShoppingIntent{RequestedSlots: []domain.Slot{domain.SlotDress}, NeedsFullOutfit: true},
			expected: []domain.Slot{domain.SlotDress, domain.SlotAccessory, domain.SlotFootwear},
		},
		{
			name: "capped at four, earliest kept",
			intent: domain.ShoppingIntent{
				RequestedSlots:  []domain.Slot{domain.SlotOuterwear, domain.SlotTop, domain.SlotBottom, domain.SlotDress},
				NeedsFullOutfit: true,
			},
			expected: []domain.Slot{domain.SlotOuterwear, domain.SlotTop, domain.SlotBottom, domain.SlotDress},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(tt.intent, vocab)
			if got := slotIDs(plan); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBuildLabels(t *testing.T) {
	plan := Build(domain.ShoppingIntent{RequestedSlots: []domain.Slot{domain.SlotOuterwear}}, config.DefaultVocabulary())
	if len(plan) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(plan))
	}
	if plan[0].Label != "Layer" || plan[0].SearchType != domain.SlotOuterwear {
		t.Errorf("unexpected entry %+v", plan[0])
	}
}
