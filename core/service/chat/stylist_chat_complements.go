package chat

import (
	"context"
	"fmt"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/core/service/composer"
	"stylist_server/pkg/apperr"
)

const (
	complementsPerType = 3
	maxComplements     = 6

	NoItemsMessage          = "I couldn't detect any specific clothing items, but I can still give you some general fashion advice!"
	CommentaryFallbackHit   = "My connection couture is acting up, but these pieces from your store are still spot-on."
	CommentaryFallbackEmpty = "My genius is wasted on this connection error. Try again later."
	noProductLinks          = "I couldn't find any specific items in your store for these colors, but here are some general ideas."
	defaultCaptionType      = "clothing item"
)

var complementFields = []string{domain.FieldCategory, domain.FieldSubcategory, domain.FieldName}

// Complements suggests catalog products that go with what the shopper is
// wearing, plus a short stylist commentary. Catalog and completer failures
// degrade to fallback text. The reply is also pushed to userID when set.
func (s *Service) Complements(ctx context.Context, userID string, req domain.ComplementRequest) (*domain.ComplementResult, error) {
	items := make([]domain.DetectedItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Type = strings.TrimSpace(item.Type); item.Type != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		caption := strings.TrimSpace(req.Caption)
		if caption == "" {
			if len(req.Items) == 0 {
				return nil, apperr.BadRequest("provide detected items or a caption")
			}
			result := &domain.ComplementResult{
				Analysis:            []domain.DetectedItem{},
				Message:             NoItemsMessage,
				RecommendedProducts: []domain.ComplementProduct{},
			}
			s.push(ctx, userID, result)
			return result, nil
		}
		items = append(items, ParseCaption(s.vocab, caption))
	}

	descriptions := make([]string, 0, len(items))
	for _, item := range items {
		descriptions = append(descriptions, strings.TrimSpace(item.Color+" "+item.Type))
	}
	described := strings.Join(descriptions, ", ")

	products, err := s.findComplements(ctx, items)
	var commentary string
	if err != nil {
		s.log.Error().Err(err).Msg("complement lookup failed")
		products = []domain.ComplementProduct{}
		commentary = CommentaryFallbackEmpty
	} else {
		commentary = s.commentary(ctx, "Detected items: "+described+".", products)
	}

	result := &domain.ComplementResult{
		Analysis:            items,
		Message:             fmt.Sprintf("Based on the image, I see: %s. Here are some outfit ideas: %s", described, commentary),
		RecommendedProducts: products,
	}
	s.push(ctx, userID, result)
	return result, nil
}

func (s *Service) push(ctx context.Context, userID string, result *domain.ComplementResult) {
	if userID == "" || s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"message":             result.Message,
		"recommendedProducts": result.RecommendedProducts,
	}
	if err := s.publisher.EmitTo(ctx, userID, domain.EventAIChatResponse, payload); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to push complement reply")
	}
}

// findComplements queries up to three in-stock products per complementary
// type, consolidates them by id and keeps the first six.
func (s *Service) findComplements(ctx context.Context, items []domain.DetectedItem) ([]domain.ComplementProduct, error) {
	var colors []string
	for _, item := range items {
		if item.Color != "" {
			colors = append(colors, item.Color)
		}
	}

	var order []string
	byID := make(map[string]*domain.ComplementProduct)

	for _, item := range items {
		for _, complement := range s.vocab.Complements[strings.ToLower(item.Type)] {
			q := out.ProductQuery{InStock: true, Limit: complementsPerType}
			q.Must(out.TextMatch{Fields: complementFields, Patterns: out.Words(complement)})
			q.Must(out.TextMatch{Fields: []string{domain.FieldColors}, Patterns: out.Words(colors...)})

			found, err := s.catalog.Find(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("find %s complements: %w", complement, err)
			}
			for _, p := range found {
				if existing, ok := byID[p.ID]; ok {
					if !contains(existing.MatchReasons, complement) {
						existing.MatchReasons = append(existing.MatchReasons, complement)
					}
					continue
				}
				cp := toComplementProduct(p, complement)
				byID[p.ID] = &cp
				order = append(order, p.ID)
			}
		}
	}

	if len(order) > maxComplements {
		order = order[:maxComplements]
	}
	products := make([]domain.ComplementProduct, 0, len(order))
	for _, id := range order {
		products = append(products, *byID[id])
	}
	return products, nil
}

func toComplementProduct(p *domain.Product, reason string) domain.ComplementProduct {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	colors := p.Colors
	if colors == nil {
		colors = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.ComplementProduct{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Brand:         p.Brand,
		Image:         p.PrimaryImage(),
		Images:        images,
		Colors:        colors,
		Tags:          tags,
		Stock:         p.Stock,
		Link:          composer.ProductLink(p.ID),
		MatchReasons:  []string{reason},
	}
}

func (s *Service) commentary(ctx context.Context, analysis string, products []domain.ComplementProduct) string {
	fallback := CommentaryFallbackEmpty
	if len(products) > 0 {
		fallback = CommentaryFallbackHit
	}
	if s.completer == nil {
		return fallback
	}

	links := noProductLinks
	if len(products) > 0 {
		lines := make([]string, 0, len(products))
		for _, p := range products {
			lines = append(lines, fmt.Sprintf("[%s](%s)", p.Name, p.Link))
		}
		links = strings.Join(lines, "\n")
	}

	system := "You are a witty and sharp-tongued fashion expert with legendary critiques and brilliant, actionable advice. " +
		"When a user shows you an outfit, you provide a concise, stylish recommendation. " +
		"You MUST ONLY include the provided product links in your response. Do not add any external links, suggest products not in the list, or mention any other stores. " +
		"Keep your response to a maximum of 150 words. The user has provided these product links from their store:\n" + links
	user := fmt.Sprintf("I'm wearing this: %s. What do you think?", analysis)

	reply, err := s.completer.CompleteWithSystem(ctx, system, user)
	if err != nil {
		s.log.Warn().Err(err).Msg("complement commentary unavailable, using fallback")
		return fallback
	}
	return reply
}

// ParseCaption reads a garment type and color from an image caption. The
// type is the first clothing group with a matching keyword, else the first
// meaningful word longer than three letters, else "clothing item".
func ParseCaption(vocab *domain.Vocabulary, caption string) domain.DetectedItem {
	lower := strings.ToLower(caption)

	var item domain.DetectedItem
	for _, color := range vocab.CaptionColors {
		if domain.MatchesPattern(lower, color) {
			item.Color = color
			break
		}
	}

	for _, group := range vocab.CaptionClothing {
		if domain.MatchesAny(lower, group.Keywords) {
			item.Type = group.Name
			return item
		}
	}

	stop := make(map[string]struct{}, len(vocab.CaptionStopWords))
	for _, w := range vocab.CaptionStopWords {
		stop[w] = struct{}{}
	}
	for _, word := range strings.Fields(lower) {
		if _, skip := stop[word]; skip || len(word) <= 3 {
			continue
		}
		item.Type = word
		return item
	}

	item.Type = defaultCaptionType
	return item
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
