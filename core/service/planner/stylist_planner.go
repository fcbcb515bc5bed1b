// Package planner turns a shopping intent into the ordered slots to fill.
package planner

import "stylist_server/core/domain"

// Build derives the slot plan from intent:
//
//  1. requested slots, or the default plan when a full outfit is needed, else top+bottom
//  2. "additional" becomes footwear, unknown slots are dropped, duplicates removed
//  3. an empty plan becomes top+bottom
//  4. a full outfit gains accessory and footwear
//  5. at most four entries, earliest first
func Build(intent domain.ShoppingIntent, vocab *domain.Vocabulary) domain.SlotPlan {
	source := intent.RequestedSlots
	if len(source) == 0 {
		if intent.NeedsFullOutfit {
			source = vocab.DefaultPlan
		} else {
			source = vocab.MinimalPlan
		}
	}

	b := &builder{vocab: vocab, seen: make(map[domain.Slot]struct{})}
	for _, slot := range source {
		if slot == domain.SlotAdditional {
			slot = domain.SlotFootwear
		}
		if _, ok := vocab.SlotConfig(slot); !ok {
			continue
		}
		b.add(slot)
	}

	if len(b.plan) == 0 {
		b.add(domain.SlotTop)
		b.add(domain.SlotBottom)
	}

	if intent.NeedsFullOutfit {
		b.add(domain.SlotAccessory)
		b.add(domain.SlotFootwear)
	}

	if len(b.plan) > domain.MaxPlanSlots {
		b.plan = b.plan[:domain.MaxPlanSlots]
	}
	return b.plan
}

type builder struct {
	vocab *domain.Vocabulary
	plan  domain.SlotPlan
	seen  map[domain.Slot]struct{}
}

func (b *builder) add(slot domain.Slot) {
	if _, dup := b.seen[slot]; dup {
		return
	}
	b.seen[slot] = struct{}{}
	b.plan = append(b.plan, domain.PlanEntry{
		SlotID:     slot,
		Label:      b.vocab.Label(slot),
		SearchType: slot,
	})
}
