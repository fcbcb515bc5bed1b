// Package matcher resolves catalog products for planned outfit slots.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/rs/zerolog"
)

const minSearchTermLength = 3

var (
	keywordFields    = []string{domain.FieldCategory, domain.FieldSubcategory, domain.FieldTags, domain.FieldName, domain.FieldDescription}
	colorFields      = []string{domain.FieldColors, domain.FieldName, domain.FieldDescription}
	occasionFields   = []string{domain.FieldOccasion, domain.FieldTags, domain.FieldDescription}
	styleFields      = []string{domain.FieldTags, domain.FieldDescription}
	genderFields     = []string{domain.FieldTags, domain.FieldCategory, domain.FieldSubcategory, domain.FieldName, domain.FieldDescription}
	searchTermFields = []string{domain.FieldName, domain.FieldTags, domain.FieldCategory, domain.FieldSubcategory, domain.FieldDescription, domain.FieldBrand}
)

// Matcher fills a slot plan from the catalog in two passes: explicit
// mentions first, then one relaxed query per unfilled slot.
type Matcher struct {
	catalog out.CatalogRepository
	vocab   *domain.Vocabulary
	log     zerolog.Logger
}

func New(catalog out.CatalogRepository, vocab *domain.Vocabulary, log zerolog.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		vocab:   vocab,
		log:     log.With().Str("component", "matcher").Logger(),
	}
}

// Match returns at most one selection per product and per slot, ordered by
// plan position.
// Slots with no qualifying product are omitted. Only catalog failures are errors.
func (m *Matcher) Match(ctx context.Context, plan domain.SlotPlan, intent domain.ShoppingIntent) ([]domain.Selection, error) {
	run := &matchRun{
		Matcher:    m,
		plan:       plan,
		intent:     intent,
		used:       make(map[string]struct{}),
		exclusions: m.genderExclusion(intent.Gender),
	}

	if err := run.directMatches(ctx); err != nil {
		return nil, err
	}
	if err := run.slotMatches(ctx); err != nil {
		return nil, err
	}

	selections := run.selections
	sort.SliceStable(selections, func(i, j int) bool {
		return planIndex(plan, selections[i].SlotID) < planIndex(plan, selections[j].SlotID)
	})
	return selections, nil
}

func planIndex(plan domain.SlotPlan, slot domain.Slot) int {
	if idx := plan.Index(slot); idx >= 0 {
		return idx
	}
	return len(plan)
}

// genderExclusion rejects products carrying the opposite gender's markers.
func (m *Matcher) genderExclusion(g domain.Gender) out.TextMatch {
	if !g.IsSpecific() {
		return out.TextMatch{}
	}
	return out.TextMatch{
		Fields:   genderFields,
		Patterns: out.Words(m.vocab.ProductGenderMarkers(g.Opposite())...),
	}
}

type matchRun struct {
	*Matcher
	plan       domain.SlotPlan
	intent     domain.ShoppingIntent
	used       map[string]struct{}
	exclusions out.TextMatch
	selections []domain.Selection
}

func (r *matchRun) usedIDs() []string {
	ids := make([]string, 0, len(r.used))
	for id := range r.used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *matchRun) baseQuery() out.ProductQuery {
	q := out.ProductQuery{
		InStock:    true,
		ExcludeIDs: r.usedIDs(),
		Sort:       out.SortBestPrice,
		Limit:      1,
	}
	q.MustNot(r.exclusions)
	return q
}

// =============================================================================
// Pass 1: direct mentions
// =============================================================================

func (r *matchRun) directMatches(ctx context.Context) error {
	for _, name := range r.intent.SpecificProducts {
		if name == "" {
			continue
		}
		q := out.ProductQuery{InStock: true, Limit: 1}
		q.Must(out.TextMatch{Fields: []string{domain.FieldName}, Patterns: out.Contains(name)})
		q.MustNot(r.exclusions)

		product, err := r.catalog.FindOne(ctx, q)
		if err != nil {
			return fmt.Errorf("find mentioned product %q: %w", name, err)
		}
		r.addDirect(product, "direct mention: "+name)
	}

	for _, term := range r.intent.SearchTerms {
		if len(term) < minSearchTermLength {
			continue
		}
		q := r.baseQuery()
		q.Sort = out.SortNone
		q.Must(out.TextMatch{Fields: searchTermFields, Patterns: out.Words(term)})

		product, err := r.catalog.FindOne(ctx, q)
		if err != nil {
			return fmt.Errorf("find product for term %q: %w", term, err)
		}
		r.addDirect(product, "search term: "+term)
	}
	return nil
}

func (r *matchRun) addDirect(product *domain.Product, reason string) {
	if product == nil {
		return
	}
	if _, seen := r.used[product.ID]; seen {
		for i := range r.selections {
			if r.selections[i].Product.ID == product.ID {
				r.selections[i].Reasons = append(r.selections[i].Reasons, reason)
				return
			}
		}
		return
	}

	entry, ok := r.planEntryFor(r.vocab.InferSlot(product))
	if !ok {
		r.log.Debug().Str("product_id", product.ID).Str("reason", reason).Msg("direct match dropped, slot already filled")
		return
	}

	r.used[product.ID] = struct{}{}
	r.selections = append(r.selections, domain.Selection{
		SlotID:     entry.SlotID,
		Label:      entry.Label,
		SearchType: entry.SearchType,
		Product:    product,
		Reasons:    []string{reason},
	})
	r.log.Debug().Str("product_id", product.ID).Str("slot", string(entry.SlotID)).Str("reason", reason).Msg("direct match")
}

// planEntryFor returns the plan entry for slot, else the accessory entry,
// else the first entry. A slot that is already filled is never returned.
func (r *matchRun) planEntryFor(slot domain.Slot) (domain.PlanEntry, bool) {
	if idx := r.plan.Index(slot); idx >= 0 {
		if r.filled(slot) {
			return domain.PlanEntry{}, false
		}
		return r.plan[idx], true
	}
	if idx := r.plan.Index(domain.SlotAccessory); idx >= 0 && !r.filled(domain.SlotAccessory) {
		return r.plan[idx], true
	}
	if len(r.plan) > 0 && !r.filled(r.plan[0].SlotID) {
		return r.plan[0], true
	}
	return domain.PlanEntry{}, false
}

// =============================================================================
// Pass 2: per-slot relaxation
// =============================================================================

func (r *matchRun) slotMatches(ctx context.Context) error {
	for _, entry := range r.plan {
		if r.filled(entry.SlotID) {
			continue
		}
		product, err := r.querySlot(ctx, entry)
		if err != nil {
			return err
		}
		if product == nil {
			r.log.Debug().Str("slot", string(entry.SlotID)).Msg("no product for slot")
			continue
		}

		r.used[product.ID] = struct{}{}
		r.selections = append(r.selections, domain.Selection{
			SlotID:     entry.SlotID,
			Label:      entry.Label,
			SearchType: entry.SearchType,
			Product:    product,
			Reasons:    r.slotReasons(entry),
		})
	}
	return nil
}

func (r *matchRun) filled(slot domain.Slot) bool {
	for _, s := range r.selections {
		if s.SlotID == slot {
			return true
		}
	}
	return false
}

func (r *matchRun) slotReasons(entry domain.PlanEntry) []string {
	reasons := []string{"slot: " + entry.Label}
	if r.intent.Occasion != "" {
		reasons = append(reasons, "occasion: "+r.intent.Occasion)
	}
	if r.intent.Gender.IsSpecific() {
		reasons = append(reasons, "gender: "+string(r.intent.Gender))
	}
	return reasons
}

// slotConditions are the optional clauses of a slot query. Empty clauses
// are ignored when a query is built.
type slotConditions struct {
	keyword  out.TextMatch
	gender   out.TextMatch
	occasion out.TextMatch
	style    out.TextMatch
	color    out.TextMatch
}

func (r *matchRun) conditionsFor(entry domain.PlanEntry) (slotConditions, bool) {
	cfg, ok := r.vocab.SlotConfig(entry.SearchType)
	if !ok {
		cfg, ok = r.vocab.SlotConfig(entry.SlotID)
	}
	if !ok {
		return slotConditions{}, false
	}

	keywords := SlotKeywords(cfg, r.intent, entry, r.vocab)
	if len(keywords) == 0 {
		keywords = cfg.FallbackKeywords
	}

	c := slotConditions{
		keyword: out.TextMatch{Fields: keywordFields, Patterns: out.Words(keywords...)},
		color:   out.TextMatch{Fields: colorFields, Patterns: out.Words(r.intent.PriorityColors...)},
		style:   out.TextMatch{Fields: styleFields, Patterns: out.Words(r.intent.StyleDescriptors...)},
	}
	if r.intent.Occasion != "" {
		c.occasion = out.TextMatch{Fields: occasionFields, Patterns: out.Words(r.intent.Occasion)}
	}
	if r.intent.Gender.IsSpecific() {
		c.gender = out.TextMatch{Fields: genderFields, Patterns: out.Words(r.vocab.ProductGenderMarkers(r.intent.Gender)...)}
	}
	return c, true
}

// querySlot runs the relaxation stages and stops at the first hit:
//
//	a. keyword, gender, occasion, style, color
//	b. without color (only when a color was requested)
//	c. without color and occasion (only when an occasion was requested)
//	d. keyword only
//
// Every stage requires stock, skips used products and excludes the opposite gender.
func (r *matchRun) querySlot(ctx context.Context, entry domain.PlanEntry) (*domain.Product, error) {
	c, ok := r.conditionsFor(entry)
	if !ok {
		return nil, nil
	}

	type stage struct {
		name     string
		color    bool
		occasion bool
		relaxed  bool
	}
	stages := []stage{{name: "all", color: true, occasion: true}}
	if !c.color.IsEmpty() {
		stages = append(stages, stage{name: "no-color", occasion: true})
	}
	if !c.occasion.IsEmpty() {
		stages = append(stages, stage{name: "no-color-occasion"})
	}
	stages = append(stages, stage{name: "keyword", relaxed: true})

	for _, st := range stages {
		q := r.baseQuery()
		q.Must(c.keyword)
		if !st.relaxed {
			q.Must(c.gender)
			if st.occasion {
				q.Must(c.occasion)
			}
			q.Must(c.style)
			if st.color {
				q.Must(c.color)
			}
		}

		product, err := r.catalog.FindOne(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query slot %s (%s): %w", entry.SlotID, st.name, err)
		}
		if product != nil {
			r.log.Debug().Str("slot", string(entry.SlotID)).Str("stage", st.name).Str("product_id", product.ID).Msg("slot matched")
			return product, nil
		}
	}
	return nil, nil
}

// SlotKeywords unions the slot vocabulary, the intent's keywords for the
// slot and its search type, and search terms that read as this slot.
func SlotKeywords(cfg domain.SlotConfig, intent domain.ShoppingIntent, entry domain.PlanEntry, vocab *domain.Vocabulary) []string {
	var keywords []string
	seen := make(map[string]struct{})
	add := func(values ...string) {
		for _, v := range values {
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			keywords = append(keywords, v)
		}
	}

	add(cfg.Keywords...)
	add(intent.KeywordsBySlot[entry.SlotID]...)
	add(intent.KeywordsBySlot[entry.SearchType]...)
	add(SearchTermsForSlot(vocab, entry.SlotID, intent.SearchTerms)...)
	return keywords
}

// SearchTermsForSlot keeps the terms that match the slot's inference patterns.
func SearchTermsForSlot(vocab *domain.Vocabulary, slot domain.Slot, terms []string) []string {
	patterns := vocab.InferencePatterns[slot]
	if len(patterns) == 0 {
		return nil
	}
	var matched []string
	for _, term := range terms {
		if domain.MatchesAny(term, patterns) {
			matched = append(matched, term)
		}
	}
	return matched
}
