// Package composer assembles matched products into a priced outfit reply.
package composer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/rs/zerolog"
)

const (
	NoMatchMessage = "I couldn't spot any in-stock pieces that match that request. Could you share more specifics or try a different vibe?"
	outroLine      = "Tap the linked outfit pieces below to explore each product."

	maxFlavorLength = 200
)

var whitespace = regexp.MustCompile(`\s+`)

const flavorSystemPrompt = "You are an upbeat personal stylist. Reply with one short sentence, no lists, no links, no prices."

// Composer builds the chat reply from selections.
type Composer struct {
	completer     out.TextCompleter
	flavorTimeout time.Duration
	log           zerolog.Logger
}

// New creates a composer. completer may be nil, in which case replies are
// purely templated.
func New(completer out.TextCompleter, flavorTimeout time.Duration, log zerolog.Logger) *Composer {
	return &Composer{
		completer:     completer,
		flavorTimeout: flavorTimeout,
		log:           log.With().Str("component", "composer").Logger(),
	}
}

// Compose never fails. Empty selections yield the no-match reply.
func (c *Composer) Compose(ctx context.Context, intent domain.ShoppingIntent, plan domain.SlotPlan, selections []domain.Selection) *domain.ChatResponse {
	if len(selections) == 0 {
		return NoMatch(intent)
	}

	recommended, simple := BuildProducts(plan, selections)
	breakdown := BuildCostBreakdown(recommended)

	message := ComposeMessage(intent, recommended, breakdown)
	if flavor := c.flavorLine(ctx, intent, recommended); flavor != "" {
		message = insertFlavor(message, flavor)
	}

	return &domain.ChatResponse{
		Message:             message,
		Products:            simple,
		RecommendedProducts: recommended,
		CostBreakdown:       breakdown,
		Intent:              intent,
	}
}

// NoMatch is the reply when nothing in stock qualified.
func NoMatch(intent domain.ShoppingIntent) *domain.ChatResponse {
	return &domain.ChatResponse{
		Message:             NoMatchMessage,
		Products:            []domain.SimpleProduct{},
		RecommendedProducts: []domain.RecommendedProduct{},
		CostBreakdown:       nil,
		Intent:              intent,
	}
}

// ProductLink is the storefront path of a product.
func ProductLink(id string) string {
	return "/product/" + id
}

// BuildProducts converts selections into the full and simplified product
// lists, both ordered by plan position.
func BuildProducts(plan domain.SlotPlan, selections []domain.Selection) ([]domain.RecommendedProduct, []domain.SimpleProduct) {
	ordered := append([]domain.Selection(nil), selections...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return orderIndex(plan, ordered[i].SlotID) < orderIndex(plan, ordered[j].SlotID)
	})

	recommended := make([]domain.RecommendedProduct, 0, len(ordered))
	simple := make([]domain.SimpleProduct, 0, len(ordered))
	for _, s := range ordered {
		p := s.Product
		if p == nil {
			continue
		}
		recommended = append(recommended, domain.RecommendedProduct{
			Slot:          s.SlotID,
			Label:         s.Label,
			SearchType:    s.SearchType,
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			DiscountPrice: p.DiscountPrice,
			Category:      p.Category,
			Subcategory:   p.Subcategory,
			Brand:         p.Brand,
			Images:        orEmpty(p.Images),
			Colors:        orEmpty(p.Colors),
			Tags:          orEmpty(p.Tags),
			Stock:         p.Stock,
			Rating:        p.Rating,
			Link:          ProductLink(p.ID),
			MatchReasons:  orEmpty(s.Reasons),
		})
		simple = append(simple, domain.SimpleProduct{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			DiscountPrice: p.DiscountPrice,
			Category:      p.Category,
			Subcategory:   p.Subcategory,
			Brand:         p.Brand,
			Images:        orEmpty(p.Images),
			Rating:        p.Rating,
			Stock:         p.Stock,
		})
	}
	return recommended, simple
}

func orderIndex(plan domain.SlotPlan, slot domain.Slot) int {
	if idx := plan.Index(slot); idx >= 0 {
		return idx
	}
	return int(^uint(0) >> 1)
}

// BuildCostBreakdown prices each item at its discount when one is set. It
// returns nil for an empty list.
func BuildCostBreakdown(products []domain.RecommendedProduct) *domain.CostBreakdown {
	if len(products) == 0 {
		return nil
	}

	items := make([]domain.CostItem, 0, len(products))
	var total float64
	for _, p := range products {
		final := p.Price
		if p.DiscountPrice > 0 {
			final = p.DiscountPrice
		}
		total += final
		items = append(items, domain.CostItem{
			Slot:                p.Slot,
			Label:               p.Label,
			Name:                p.Name,
			Price:               p.Price,
			DiscountPrice:       p.DiscountPrice,
			FinalPrice:          final,
			Link:                p.Link,
			FormattedFinalPrice: FormatINR(final),
		})
	}

	return &domain.CostBreakdown{
		Currency:       CurrencyINR,
		Items:          items,
		Total:          total,
		FormattedTotal: FormatINR(total),
	}
}

// ComposeMessage renders the templated reply: intro, one bullet per item,
// the total and a closing line.
func ComposeMessage(intent domain.ShoppingIntent, products []domain.RecommendedProduct, breakdown *domain.CostBreakdown) string {
	if len(products) == 0 {
		return NoMatchMessage
	}

	var parts []string
	if intent.Gender.IsSpecific() {
		parts = append(parts, string(intent.Gender))
	}
	if intent.Occasion != "" {
		parts = append(parts, intent.Occasion)
	} else {
		parts = append(parts, "styled")
	}
	intro := whitespace.ReplaceAllString(fmt.Sprintf("Here's a %s outfit pulled from your store:", strings.Join(parts, " ")), " ")

	lines := []string{intro}
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("• %s: %s", p.Label, p.Name))
	}
	if breakdown != nil {
		lines = append(lines, fmt.Sprintf("Total outfit cost: %s.", breakdown.FormattedTotal))
	}
	lines = append(lines, outroLine)
	return strings.Join(lines, "\n")
}

// insertFlavor places the flavor sentence right after the intro line.
func insertFlavor(message, flavor string) string {
	intro, rest, found := strings.Cut(message, "\n")
	if !found {
		return message + "\n" + flavor
	}
	return intro + "\n" + flavor + "\n" + rest
}

// flavorLine asks the completer for one sentence about the outfit. Any
// failure returns "" and the template is used unchanged.
func (c *Composer) flavorLine(ctx context.Context, intent domain.ShoppingIntent, products []domain.RecommendedProduct) string {
	if c.completer == nil {
		return ""
	}
	if c.flavorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.flavorTimeout)
		defer cancel()
	}

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Label+": "+p.Name)
	}
	occasion := intent.Occasion
	if occasion == "" {
		occasion = "everyday wear"
	}
	prompt := fmt.Sprintf("Why do these pieces work together for %s? %s", occasion, strings.Join(names, "; "))

	reply, err := c.completer.CompleteWithSystem(ctx, flavorSystemPrompt, prompt, out.WithTemperature(0.7), out.WithMaxTokens(60))
	if err != nil {
		c.log.Warn().Err(err).Msg("flavor text unavailable, using template")
		return ""
	}
	return cleanFlavor(reply)
}

// cleanFlavor keeps the first non-empty line, collapsed and length-bounded.
func cleanFlavor(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		if len([]rune(line)) > maxFlavorLength {
			line = string([]rune(line)[:maxFlavorLength])
		}
		return line
	}
	return ""
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
