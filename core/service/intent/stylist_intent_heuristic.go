// Package intent turns free-text shopping requests into a structured intent.
package intent

import (
	"regexp"
	"strings"

	"stylist_server/core/domain"
)

const maxSearchTerms = 12

var (
	quotedPattern   = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	titleCasePhrase = regexp.MustCompile(`(?:^|\s)([A-Z][\w&]*(?:\s+[A-Z][\w&]*){1,3})`)
	searchToken     = regexp.MustCompile(`[a-z][a-z'&-]{2,}`)
)

// Heuristic builds the deterministic intent from keyword tables. It is the
// result whenever no completer is configured or the completer fails.
func (e *Extractor) Heuristic(query string) domain.ShoppingIntent {
	v := e.vocab

	requested := e.detectRequestedSlots(query)
	hasOnePiece := domain.MatchesAny(query, v.OnePieceMarkers)
	needsFullOutfit := domain.MatchesAny(query, v.FullOutfitMarkers) || len(requested) == 0

	var plan []domain.Slot
	switch {
	case len(requested) > 0:
		plan = requested
	case hasOnePiece:
		plan = v.OnePiecePlan
	case needsFullOutfit:
		plan = v.DefaultPlan
	default:
		plan = v.MinimalPlan
	}

	return domain.ShoppingIntent{
		Gender:           v.ClassifyQueryGender(query),
		Occasion:         e.detectOccasion(query),
		StyleDescriptors: nonNil(domain.MatchingPatterns(query, v.Styles)),
		PriorityColors:   nonNil(domain.MatchingPatterns(query, v.Colors)),
		SpecificProducts: ExtractMentions(query),
		NeedsFullOutfit:  needsFullOutfit,
		RequestedSlots:   uniqueSlots(plan),
		KeywordsBySlot:   e.detectSlotKeywords(query),
		SearchTerms:      e.ExtractSearchTerms(query),
	}
}

func (e *Extractor) detectOccasion(query string) string {
	for _, group := range e.vocab.Occasions {
		if domain.MatchesAny(query, group.Keywords) {
			return group.Name
		}
	}
	return ""
}

func (e *Extractor) detectRequestedSlots(query string) []domain.Slot {
	var slots []domain.Slot
	for _, slot := range e.vocab.SlotOrder {
		cfg, _ := e.vocab.SlotConfig(slot)
		if domain.MatchesAny(query, cfg.Keywords) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (e *Extractor) detectSlotKeywords(query string) map[domain.Slot][]string {
	keywords := make(map[domain.Slot][]string)
	for _, slot := range e.vocab.SlotOrder {
		cfg, _ := e.vocab.SlotConfig(slot)
		if found := domain.MatchingPatterns(query, cfg.Keywords); len(found) > 0 {
			keywords[slot] = found
		}
	}
	return keywords
}

// ExtractSearchTerms returns up to 12 unique lowercase tokens that are not stop words.
func (e *Extractor) ExtractSearchTerms(query string) []string {
	terms := []string{}
	seen := make(map[string]struct{})
	for _, token := range searchToken.FindAllString(strings.ToLower(query), -1) {
		if e.vocab.IsStopWord(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
		if len(terms) == maxSearchTerms {
			break
		}
	}
	return terms
}

// ExtractMentions finds explicitly named products: quoted strings and runs of
// two to four Title-Case words longer than two letters. A single quote only
// opens a mention at a word start, so contractions are not read as quotes.
func ExtractMentions(query string) []string {
	mentions := []string{}
	seen := make(map[string]struct{})
	add := func(m string) {
		m = strings.TrimSpace(m)
		if m == "" {
			return
		}
		if _, dup := seen[m]; dup {
			return
		}
		seen[m] = struct{}{}
		mentions = append(mentions, m)
	}

	for _, idx := range quotedPattern.FindAllStringSubmatchIndex(query, -1) {
		switch {
		case idx[2] >= 0:
			add(query[idx[2]:idx[3]])
		case idx[4] >= 0:
			if idx[0] > 0 && isLetter(query[idx[0]-1]) {
				continue
			}
			add(query[idx[4]:idx[5]])
		}
	}

	for _, match := range titleCasePhrase.FindAllStringSubmatch(query, -1) {
		phrase := strings.TrimSpace(match[1])
		if allWordsLonger(phrase, 2) {
			add(phrase)
		}
	}
	return mentions
}

func allWordsLonger(phrase string, n int) bool {
	for _, word := range strings.Split(phrase, " ") {
		if len(word) <= n {
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func uniqueSlots(slots []domain.Slot) []domain.Slot {
	out := make([]domain.Slot, 0, len(slots))
	seen := make(map[domain.Slot]struct{}, len(slots))
	for _, s := range slots {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
