package domain

import (
	"fmt"
	"strings"
)

// SlotConfig describes how a slot is labelled and searched.
type SlotConfig struct {
	Label            string   `json:"label"`
	Keywords         []string `json:"keywords"`
	FallbackKeywords []string `json:"fallbackKeywords"`
}

// KeywordGroup is a named keyword list. Groups are matched in list order.
type KeywordGroup struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// GenderMarkers holds every word list used to infer gender.
type GenderMarkers struct {
	QueryWomen    []string `json:"queryWomen"`
	QueryMen      []string `json:"queryMen"`
	ProductWomen  []string `json:"productWomen"`
	ProductMen    []string `json:"productMen"`
	MaleNames     []string `json:"maleNames"`
	FemaleNames   []string `json:"femaleNames"`
	MaleEndings   []string `json:"maleEndings"`
	FemaleEndings []string `json:"femaleEndings"`
}

// PoolKeywords are the broad category terms behind personalized pools.
type PoolKeywords struct {
	Tops        []string `json:"tops"`
	Bottoms     []string `json:"bottoms"`
	Accessories []string `json:"accessories"`
}

// Vocabulary is the data behind every heuristic. It is loaded from
// configuration so the matching code can be exercised against any table.
type Vocabulary struct {
	Colors            []string              `json:"colors"`
	Occasions         []KeywordGroup        `json:"occasions"`
	Styles            []string              `json:"styles"`
	SlotOrder         []Slot                `json:"slotOrder"`
	Slots             map[Slot]SlotConfig   `json:"slots"`
	DefaultPlan       []Slot                `json:"defaultPlan"`
	OnePiecePlan      []Slot                `json:"onePiecePlan"`
	MinimalPlan       []Slot                `json:"minimalPlan"`
	StopWords         []string              `json:"stopWords"`
	InferenceOrder    []Slot                `json:"inferenceOrder"`
	InferencePatterns map[Slot][]string     `json:"inferencePatterns"`
	CategoryHintOrder []Slot                `json:"categoryHintOrder"`
	CategoryHints     map[Slot][]string     `json:"categoryHints"`
	OnePieceMarkers   []string              `json:"onePieceMarkers"`
	FullOutfitMarkers []string              `json:"fullOutfitMarkers"`
	Gender            GenderMarkers         `json:"gender"`
	Pools             PoolKeywords          `json:"pools"`
	Complements       map[string][]string   `json:"complements"`
	CaptionClothing   []KeywordGroup        `json:"captionClothing"`
	CaptionColors     []string              `json:"captionColors"`
	CaptionStopWords  []string              `json:"captionStopWords"`

	stopWords map[string]struct{}
}

// Prepare validates the tables and builds lookup sets. It must be called once
// before the vocabulary is shared.
func (v *Vocabulary) Prepare() error {
	if len(v.Slots) == 0 {
		return fmt.Errorf("vocabulary: no slots configured")
	}
	for _, slot := range []Slot{SlotTop, SlotBottom, SlotAccessory, SlotFootwear} {
		if _, ok := v.Slots[slot]; !ok {
			return fmt.Errorf("vocabulary: slot %q missing", slot)
		}
	}
	if len(v.SlotOrder) == 0 {
		return fmt.Errorf("vocabulary: slotOrder is empty")
	}
	for _, slot := range v.SlotOrder {
		if _, ok := v.Slots[slot]; !ok {
			return fmt.Errorf("vocabulary: slotOrder names unknown slot %q", slot)
		}
	}
	if len(v.DefaultPlan) == 0 {
		v.DefaultPlan = []Slot{SlotTop, SlotBottom, SlotAccessory, SlotFootwear}
	}
	if len(v.MinimalPlan) == 0 {
		v.MinimalPlan = []Slot{SlotTop, SlotBottom}
	}
	if len(v.OnePiecePlan) == 0 {
		v.OnePiecePlan = []Slot{SlotDress, SlotAccessory, SlotFootwear}
	}

	v.stopWords = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stopWords[strings.ToLower(w)] = struct{}{}
	}
	return nil
}

// IsStopWord reports whether token is filtered from free search terms.
func (v *Vocabulary) IsStopWord(token string) bool {
	_, ok := v.stopWords[token]
	return ok
}

// SlotConfig returns the search configuration for slot.
func (v *Vocabulary) SlotConfig(slot Slot) (SlotConfig, bool) {
	cfg, ok := v.Slots[slot]
	return cfg, ok
}

// Label returns the display label of slot, or the slot id itself.
func (v *Vocabulary) Label(slot Slot) string {
	if cfg, ok := v.Slots[slot]; ok && cfg.Label != "" {
		return cfg.Label
	}
	return string(slot)
}

// =============================================================================
// Pattern matching
// =============================================================================

// MatchesPattern reports whether pattern occurs in text. Patterns containing
// a space match as substrings. Single words must start on an ASCII word
// boundary and end on one, optionally after a plural "s" or "es", so "hat"
// matches "hats" but not "what".
func MatchesPattern(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	lowerText := strings.ToLower(text)
	p := strings.ToLower(pattern)
	if strings.Contains(p, " ") {
		return strings.Contains(lowerText, p)
	}

	from := 0
	for {
		idx := strings.Index(lowerText[from:], p)
		if idx < 0 {
			return false
		}
		start := from + idx
		if start == 0 || !isWordByte(lowerText[start-1]) {
			if endsWord(lowerText, start+len(p)) {
				return true
			}
		}
		from = start + 1
	}
}

// endsWord reports whether a word ends at end, allowing a plural suffix.
func endsWord(text string, end int) bool {
	boundary := func(i int) bool { return i >= len(text) || !isWordByte(text[i]) }
	if boundary(end) {
		return true
	}
	if text[end] == 's' && boundary(end+1) {
		return true
	}
	return strings.HasPrefix(text[end:], "es") && boundary(end+2)
}

// MatchesAny reports whether any pattern matches text.
func MatchesAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if MatchesPattern(text, p) {
			return true
		}
	}
	return false
}

// MatchingPatterns returns the patterns that match text, in table order, without duplicates.
func MatchingPatterns(text string, patterns []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range patterns {
		if _, dup := seen[p]; dup {
			continue
		}
		if MatchesPattern(text, p) {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// =============================================================================
// Product inference
// =============================================================================

// ProductSearchText concatenates the fields used for slot inference.
func ProductSearchText(p *Product) string {
	parts := []string{p.Category, p.Subcategory, p.StyleType, p.Material, p.Brand, p.Name}
	parts = append(parts, p.Tags...)

	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(part))
	}
	return b.String()
}

// InferSlot guesses which outfit role a product plays. Category hints are
// checked first as substrings, then the inference patterns over the product
// text. Products that match nothing are treated as accessories.
func (v *Vocabulary) InferSlot(p *Product) Slot {
	attributes := []string{p.Category, p.Subcategory, p.StyleType, p.FitType}
	attributes = append(attributes, p.Tags...)

	for _, value := range attributes {
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		for _, slot := range v.CategoryHintOrder {
			for _, hint := range v.CategoryHints[slot] {
				if strings.Contains(lower, hint) {
					return slot
				}
			}
		}
	}

	if text := ProductSearchText(p); text != "" {
		for _, slot := range v.InferenceOrder {
			if MatchesAny(text, v.InferencePatterns[slot]) {
				return slot
			}
		}
	}

	return SlotAccessory
}

// ClassifyProductGender reads gender markers from a product's descriptive
// fields. Women's markers are checked first.
func (v *Vocabulary) ClassifyProductGender(p *Product) Gender {
	text := strings.Join(append([]string{p.Name, p.Category, p.Subcategory, p.Description}, p.Tags...), " ")
	return v.classifyText(text, v.Gender.ProductWomen, v.Gender.ProductMen)
}

// ClassifyQueryGender reads gender markers from shopper text.
func (v *Vocabulary) ClassifyQueryGender(text string) Gender {
	return v.classifyText(text, v.Gender.QueryWomen, v.Gender.QueryMen)
}

func (v *Vocabulary) classifyText(text string, women, men []string) Gender {
	if MatchesAny(text, women) {
		return GenderWomen
	}
	if MatchesAny(text, men) {
		return GenderMen
	}
	return GenderUnisex
}

// ProductGenderMarkers returns the catalog-side markers for g.
func (v *Vocabulary) ProductGenderMarkers(g Gender) []string {
	switch g {
	case GenderMen:
		return v.Gender.ProductMen
	case GenderWomen:
		return v.Gender.ProductWomen
	default:
		return nil
	}
}

// ClassifyName guesses a shopper's gender from a display name. Curated names
// match as substrings, men's list first. Endings are checked women's first.
func (v *Vocabulary) ClassifyName(name string) Gender {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return GenderUnisex
	}
	for _, n := range v.Gender.MaleNames {
		if strings.Contains(lower, n) {
			return GenderMen
		}
	}
	for _, n := range v.Gender.FemaleNames {
		if strings.Contains(lower, n) {
			return GenderWomen
		}
	}
	for _, ending := range v.Gender.FemaleEndings {
		if strings.HasSuffix(lower, ending) {
			return GenderWomen
		}
	}
	for _, ending := range v.Gender.MaleEndings {
		if strings.HasSuffix(lower, ending) {
			return GenderMen
		}
	}
	return GenderUnisex
}
