// Package chat orchestrates the conversational outfit flow.
package chat

import (
	"context"
	"net/http"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/core/service/composer"
	"stylist_server/core/service/intent"
	"stylist_server/core/service/matcher"
	"stylist_server/core/service/planner"
	"stylist_server/pkg/apperr"

	"github.com/rs/zerolog"
)

const (
	EmptyQueryMessage  = "Please provide a message for the assistant to analyze."
	ChatFailureMessage = "Sorry, I ran into a snag pulling products for that look. Please try again in a moment."
)

// Service runs intent extraction, planning, matching and composition.
type Service struct {
	vocab     *domain.Vocabulary
	extractor *intent.Extractor
	matcher   *matcher.Matcher
	composer  *composer.Composer
	catalog   out.CatalogRepository
	completer out.TextCompleter
	publisher out.EventPublisher
	log       zerolog.Logger
}

// ServiceDeps holds dependencies for creating a Service.
type ServiceDeps struct {
	Vocabulary *domain.Vocabulary
	Extractor  *intent.Extractor
	Matcher    *matcher.Matcher
	Composer   *composer.Composer
	Catalog    out.CatalogRepository
	Completer  out.TextCompleter // optional
	Publisher  out.EventPublisher
	Logger     zerolog.Logger
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		vocab:     deps.Vocabulary,
		extractor: deps.Extractor,
		matcher:   deps.Matcher,
		composer:  deps.Composer,
		catalog:   deps.Catalog,
		completer: deps.Completer,
		publisher: deps.Publisher,
		log:       deps.Logger.With().Str("component", "chat").Logger(),
	}
}

// InterpretAndCompose answers a free-text request with a composed outfit.
func (s *Service) InterpretAndCompose(ctx context.Context, query string, history []domain.ChatTurn) (*domain.ChatResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.BadRequest(EmptyQueryMessage)
	}

	shopping := s.extractor.Extract(ctx, query, history)
	plan := planner.Build(shopping, s.vocab)

	selections, err := s.matcher.Match(ctx, plan, shopping)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("matching failed")
		appErr := apperr.New(apperr.CodeDatabaseError, ChatFailureMessage, http.StatusInternalServerError)
		appErr.Err = err
		return nil, appErr
	}

	s.log.Info().
		Str("gender", string(shopping.Gender)).
		Str("occasion", shopping.Occasion).
		Int("planned", len(plan)).
		Int("selected", len(selections)).
		Msg("chat outfit composed")

	return s.composer.Compose(ctx, shopping, plan, selections), nil
}
