package stylist

import (
	"context"
	"fmt"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/rs/zerolog"
)

// GenderDetector infers a shopper's gender from their display name.
type GenderDetector struct {
	vocab     *domain.Vocabulary
	cache     out.GenderCache
	completer out.TextCompleter
	log       zerolog.Logger
}

// NewGenderDetector creates a detector. cache and completer may be nil.
func NewGenderDetector(vocab *domain.Vocabulary, cache out.GenderCache, completer out.TextCompleter, log zerolog.Logger) *GenderDetector {
	return &GenderDetector{
		vocab:     vocab,
		cache:     cache,
		completer: completer,
		log:       log.With().Str("component", "gender").Logger(),
	}
}

// Detect never fails. A missing name, an unavailable completer or a
// completer error all resolve to men.
func (d *GenderDetector) Detect(ctx context.Context, displayName string) domain.Gender {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return domain.GenderMen
	}

	if g := d.vocab.ClassifyName(name); g.IsSpecific() {
		return g
	}

	key := strings.ToLower(name)
	if d.cache != nil {
		cached, err := d.cache.GetGender(ctx, key)
		if err != nil {
			d.log.Warn().Err(err).Msg("gender cache lookup failed")
		} else if cached.IsSpecific() {
			return cached
		}
	}

	if d.completer == nil {
		return domain.GenderMen
	}

	prompt := fmt.Sprintf("Based on the name %q, determine if this is typically a male, female, or gender-neutral name.\n"+
		"Respond with ONLY one word: \"male\", \"female\", or \"unisex\". No explanation needed.", name)
	answer, err := d.completer.Complete(ctx, prompt, out.WithTemperature(0.3), out.WithMaxTokens(10))
	if err != nil {
		d.log.Warn().Err(err).Msg("gender completion failed, defaulting to men")
		return domain.GenderMen
	}

	gender := domain.GenderMen
	if strings.ToLower(strings.TrimSpace(answer)) == "female" {
		gender = domain.GenderWomen
	}

	if d.cache != nil {
		if err := d.cache.SetGender(ctx, key, gender); err != nil {
			d.log.Warn().Err(err).Msg("gender cache write failed")
		}
	}
	return gender
}
