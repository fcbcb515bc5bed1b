package stylist

import (
	"stylist_server/core/domain"
	"stylist_server/pkg/random"
)

// Seed offsets keep the three pool permutations independent.
const (
	topSeedOffset       = 0
	bottomSeedOffset    = 1000
	accessorySeedOffset = 2000
)

// Candidate is a generated outfit before it is reduced to stored snapshots.
type Candidate struct {
	Top       *domain.Product
	Bottom    *domain.Product
	Accessory *domain.Product
}

// Outfit converts the candidate into its canonical snapshot form.
func (c Candidate) Outfit() domain.PersonalizedOutfit {
	return domain.PersonalizedOutfit{
		Top:       domain.NewSuggestionProduct(c.Top),
		Bottom:    domain.NewSuggestionProduct(c.Bottom),
		Accessory: domain.NewSuggestionProduct(c.Accessory),
	}
}

// Generate shuffles each pool with the seed and zips them positionally into
// at most limit outfits. Candidates whose top or bottom is the opposite gender,
// or whose top and bottom are the same product, are skipped. An accessory
// that is opposite gender or repeats the top or bottom is dropped.
func Generate(vocab *domain.Vocabulary, pools Pools, limit int, seed uint64, gender domain.Gender) []Candidate {
	tops := random.Shuffle(pools.Tops, seed+topSeedOffset)
	bottoms := random.Shuffle(pools.Bottoms, seed+bottomSeedOffset)
	accessories := random.Shuffle(pools.Accessories, seed+accessorySeedOffset)

	if len(bottoms) == 0 {
		return nil
	}

	opposite := gender.Opposite()
	isOpposite := func(p *domain.Product) bool {
		return opposite != "" && vocab.ClassifyProductGender(p) == opposite
	}

	var candidates []Candidate
	for i := 0; i < min(limit, len(tops)); i++ {
		top := tops[i]
		bottom := bottoms[i%len(bottoms)]
		var accessory *domain.Product
		if len(accessories) > 0 {
			accessory = accessories[i%len(accessories)]
		}

		if top == nil || bottom == nil || top.ID == bottom.ID {
			continue
		}
		if isOpposite(top) || isOpposite(bottom) {
			continue
		}
		if accessory != nil && (isOpposite(accessory) || accessory.ID == top.ID || accessory.ID == bottom.ID) {
			accessory = nil
		}

		candidates = append(candidates, Candidate{Top: top, Bottom: bottom, Accessory: accessory})
	}
	return candidates
}
