package intent

import (
	"context"
	"fmt"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const historyWindow = 4

const systemPrompt = `You are a fashion retail AI that extracts intent from shopper messages.
Return ONLY strict JSON with this exact schema:
{"gender": "men|women|unisex|unknown", "occasion": string|null, "styleDescriptors": [string], "priorityColors": [string], "specificProducts": [string], "needsFullOutfit": boolean, "requestedSlots": ["top"|"bottom"|"dress"|"accessory"|"footwear"|"outerwear"|"additional"], "keywordsBySlot": { "slot": [string] } }.
Slots should be chosen only from the allowed list.
If the user explicitly names a product, add the exact quoted name to specificProducts.
If the user asks for a complete outfit or sounds open-ended, set needsFullOutfit to true.
Use empty arrays instead of null for list fields when no data is found.`

// Extractor reads shopping intent from a query and recent conversation.
type Extractor struct {
	vocab     *domain.Vocabulary
	completer out.TextCompleter
	log       zerolog.Logger
}

// NewExtractor creates an extractor. completer may be nil.
func NewExtractor(vocab *domain.Vocabulary, completer out.TextCompleter, log zerolog.Logger) *Extractor {
	return &Extractor{
		vocab:     vocab,
		completer: completer,
		log:       log.With().Str("component", "intent").Logger(),
	}
}

// Extract never fails. The completer result is merged over the heuristic
// intent field by field; any completer error yields the heuristic intent.
func (e *Extractor) Extract(ctx context.Context, query string, history []domain.ChatTurn) domain.ShoppingIntent {
	fallback := e.Heuristic(query)
	if e.completer == nil {
		return fallback
	}

	var raw map[string]json.RawMessage
	err := e.completer.CompleteJSON(ctx, systemPrompt, UserPrompt(query, history), &raw, out.WithTemperature(0.2))
	if err != nil {
		e.log.Warn().Err(err).Msg("intent completion failed, using heuristic intent")
		return fallback
	}
	if raw == nil {
		e.log.Warn().Msg("intent completion returned no object, using heuristic intent")
		return fallback
	}
	return mergeIntent(fallback, raw)
}

// UserPrompt frames the query with the recent conversation when there is one.
func UserPrompt(query string, history []domain.ChatTurn) string {
	if summary := SummarizeHistory(history); summary != "" {
		return fmt.Sprintf("Conversation so far:\n%s\n\nCurrent user request: %s", summary, query)
	}
	return "User request: " + query
}

// SummarizeHistory renders the last four turns as "User:"/"Assistant:" lines.
func SummarizeHistory(history []domain.ChatTurn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		sender := "Assistant"
		if turn.Sender == "user" {
			sender = "User"
		}
		lines = append(lines, sender+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

// mergeIntent prefers completer values that are present and well-typed.
// Search terms always come from the heuristic.
func mergeIntent(fallback domain.ShoppingIntent, raw map[string]json.RawMessage) domain.ShoppingIntent {
	merged := fallback

	var gender string
	if decodeField(raw, "gender", &gender) && gender != "" && !strings.EqualFold(gender, "unknown") {
		if g := domain.ParseGender(gender); g != "" {
			merged.Gender = g
		}
	}

	var occasion string
	if decodeField(raw, "occasion", &occasion) && strings.TrimSpace(occasion) != "" {
		merged.Occasion = strings.TrimSpace(occasion)
	}

	var styles []string
	if decodeField(raw, "styleDescriptors", &styles) && len(styles) > 0 {
		merged.StyleDescriptors = styles
	}

	var colors []string
	if decodeField(raw, "priorityColors", &colors) && len(colors) > 0 {
		merged.PriorityColors = colors
	}

	var products []string
	if decodeField(raw, "specificProducts", &products) && products != nil {
		merged.SpecificProducts = products
	}

	var needsFull bool
	if decodeField(raw, "needsFullOutfit", &needsFull) {
		merged.NeedsFullOutfit = needsFull
	}

	var slots []string
	if decodeField(raw, "requestedSlots", &slots) && len(slots) > 0 {
		requested := make([]domain.Slot, 0, len(slots))
		for _, s := range slots {
			requested = append(requested, domain.Slot(strings.ToLower(strings.TrimSpace(s))))
		}
		merged.RequestedSlots = uniqueSlots(requested)
	}

	var bySlot map[string]json.RawMessage
	if decodeField(raw, "keywordsBySlot", &bySlot) && bySlot != nil {
		keywords := make(map[domain.Slot][]string, len(bySlot))
		for slot, value := range bySlot {
			var list []string
			if err := json.Unmarshal(value, &list); err == nil && len(list) > 0 {
				keywords[domain.Slot(strings.ToLower(slot))] = list
			}
		}
		merged.KeywordsBySlot = keywords
	}

	return merged
}

// decodeField reports whether key is present, non-null and of the target type.
func decodeField(raw map[string]json.RawMessage, key string, target interface{}) bool {
	value, ok := raw[key]
	if !ok || len(value) == 0 || string(value) == "null" {
		return false
	}
	return json.Unmarshal(value, target) == nil
}
