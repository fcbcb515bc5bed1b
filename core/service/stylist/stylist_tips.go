package stylist

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/pkg/apperr"
)

const (
	tipSystemPrompt      = "You are a concise, trend-aware fashion stylist who gives grounded outfit advice."
	maxTipDescriptionLen = 600
)

var (
	lineBreaks   = regexp.MustCompile(`(?:\r?\n)+`)
	linePrefix   = regexp.MustCompile(`(?i)^line\s*\d+\s*[:.\-]*`)
	bulletPrefix = regexp.MustCompile(`^[-•\s]+`)
	sentenceEnd  = regexp.MustCompile(`[.!?]\s+`)
	spaces       = regexp.MustCompile(`\s+`)
)

// ProductStyleTip returns two styling lines for a product. Completer
// failures and unusable replies fall back to templated lines.
func (s *Service) ProductStyleTip(ctx context.Context, productID string) (*domain.StyleTip, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, apperr.BadRequest("Product ID is required")
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, apperr.DatabaseError("load product for style suggestion", err)
	}
	if product == nil {
		return nil, apperr.NotFound("product")
	}

	tip := &domain.StyleTip{
		ProductID:   product.ID,
		ProductName: product.Name,
		Suggestions: FallbackTips(product),
		Source:      domain.TipSourceFallback,
	}
	if s.completer == nil {
		return tip, nil
	}

	reply, err := s.completer.CompleteWithSystem(ctx, tipSystemPrompt, tipPrompt(product),
		out.WithTemperature(0.55), out.WithMaxTokens(150))
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", product.ID).Msg("style tip completion failed, using fallback")
		return tip, nil
	}

	lines := ParseSuggestionLines(reply)
	if len(lines) < 2 {
		s.log.Warn().Str("product_id", product.ID).Msg("style tip reply did not yield two lines, using fallback")
		return tip, nil
	}
	tip.Suggestions = lines[:2]
	tip.Source = domain.TipSourceAI
	return tip, nil
}

func tipPrompt(p *domain.Product) string {
	description := strings.TrimSpace(spaces.ReplaceAllString(p.Description, " "))
	if r := []rune(description); len(r) > maxTipDescriptionLen {
		description = string(r[:maxTipDescriptionLen])
	}

	var b strings.Builder
	b.WriteString("You write quick styling tips for shoppers. Read the product details and craft exactly two distinct styling lines. ")
	b.WriteString("Each line should be 10-18 words, practical, and free of hype. ")
	b.WriteString("Focus on complementary pieces, color balance, and finishing touches. ")
	b.WriteString("Do not repeat the product name twice, do not use bullet points, and avoid marketing jargon.\n\n")
	fmt.Fprintf(&b, "Product name: %s\n", p.Name)
	fmt.Fprintf(&b, "Category: %s\n", orDefault(p.Category, "N/A"))
	fmt.Fprintf(&b, "Subcategory: %s\n", orDefault(p.Subcategory, "N/A"))
	fmt.Fprintf(&b, "Tags: %s\n", orDefault(strings.Join(p.Tags, ", "), "none"))
	fmt.Fprintf(&b, "Colors: %s\n", orDefault(strings.Join(p.Colors, ", "), "unspecified"))
	fmt.Fprintf(&b, "Material: %s\n", orDefault(p.Material, "unspecified"))
	fmt.Fprintf(&b, "Description: %s\n\n", orDefault(description, "No description available."))
	b.WriteString("Respond exactly in this format:\nLine 1: <first styling line>\nLine 2: <second styling line>")
	return b.String()
}

// ParseSuggestionLines reduces a completion to styling lines. "Line N:" and
// bullet prefixes are stripped. A reply with fewer than two lines is split
// into sentences instead.
func ParseSuggestionLines(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var lines []string
	for _, line := range lineBreaks.Split(raw, -1) {
		line = linePrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) >= 2 {
		return lines[:2]
	}

	sentences := splitSentences(raw)
	if len(sentences) >= 2 {
		return sentences[:2]
	}
	if len(lines) > 0 {
		return lines
	}
	return sentences
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// FallbackTips builds two templated lines from the product's name, first
// color, material and category.
func FallbackTips(p *domain.Product) []string {
	name := orDefault(p.Name, "this piece")
	category := strings.ToLower(orDefault(p.Category, "outfit"))

	accent := "soft neutrals"
	if len(p.Colors) > 0 && p.Colors[0] != "" {
		accent = strings.ToLower(p.Colors[0]) + " accents"
	}
	focus := "clean lines"
	if p.Material != "" {
		focus = strings.ToLower(p.Material) + " texture"
	}

	var finish string
	switch {
	case strings.Contains(category, "dress"):
		finish = "layered jewelry and strappy heels"
	case strings.Contains(category, "shirt"), strings.Contains(category, "top"):
		finish = "tailored bottoms and polished footwear"
	case strings.Contains(category, "pants"), strings.Contains(category, "jeans"):
		finish = "a fitted top and sleek accessories"
	default:
		finish = "minimal accessories to keep the look refined"
	}

	return []string{
		fmt.Sprintf("Let %s stand out by pairing it with %s that highlight its %s.", name, accent, focus),
		fmt.Sprintf("Complete the look with %s for a balanced, confident silhouette.", finish),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
