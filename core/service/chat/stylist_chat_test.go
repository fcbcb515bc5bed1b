package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"stylist_server/adapter/out/memory"
	"stylist_server/config"
	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/core/service/composer"
	"stylist_server/core/service/intent"
	"stylist_server/core/service/matcher"
	"stylist_server/pkg/apperr"

	"github.com/rs/zerolog"
)

type recordingCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (c *recordingCompleter) Complete(ctx context.Context, prompt string, opts ...out.CompletionOption) (string, error) {
	return c.reply, c.err
}

func (c *recordingCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...out.CompletionOption) (string, error) {
	c.system, c.user = systemPrompt, userPrompt
	return c.reply, c.err
}

func (c *recordingCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, result interface{}, opts ...out.CompletionOption) error {
	return errors.New("json not supported")
}

type emitted struct {
	userID string
	event  domain.EventType
}

type fakePublisher struct {
	events []emitted
}

func (p *fakePublisher) Emit(ctx context.Context, event domain.EventType, payload interface{}) error {
	p.events = append(p.events, emitted{event: event})
	return nil
}

func (p *fakePublisher) EmitTo(ctx context.Context, userID string, event domain.EventType, payload interface{}) error {
	p.events = append(p.events, emitted{userID: userID, event: event})
	return nil
}

type failingCatalog struct {
	out.CatalogRepository
}

func (failingCatalog) FindOne(ctx context.Context, q out.ProductQuery) (*domain.Product, error) {
	return nil, errors.New("connection reset")
}

func (failingCatalog) Find(ctx context.Context, q out.ProductQuery) ([]*domain.Product, error) {
	return nil, errors.New("connection reset")
}

func fixtureCatalog() *memory.Catalog {
	return memory.NewCatalog(
		&domain.Product{ID: "p1", Name: "Blue Chinos", Category: "Pants", Colors: []string{"blue"}, Tags: []string{"men"}, Price: 1800, Stock: 3},
		&domain.Product{ID: "p2", Name: "Black Jeans", Category: "Jeans", Colors: []string{"black"}, Price: 2200, Stock: 4},
		&domain.Product{ID: "p3", Name: "Blue Sneakers", Category: "Footwear", Colors: []string{"blue"}, Price: 2500, Stock: 2, Images: []string{"sneakers.jpg"}},
		&domain.Product{ID: "p4", Name: "Blue Cargo Pants", Category: "Pants", Colors: []string{"blue"}, Price: 900, Stock: 0},
		&domain.Product{ID: "p5", Name: "Oxford Shirt", Category: "Shirts", Colors: []string{"white"}, Tags: []string{"men"}, Price: 1500, Stock: 5},
	)
}

func newService(catalog out.CatalogRepository, completer out.TextCompleter, publisher out.EventPublisher) *Service {
	vocab := config.DefaultVocabulary()
	log := zerolog.Nop()
	deps := ServiceDeps{
		Vocabulary: vocab,
		Extractor:  intent.NewExtractor(vocab, nil, log),
		Matcher:    matcher.New(catalog, vocab, log),
		Composer:   composer.New(nil, time.Second, log),
		Catalog:    catalog,
		Completer:  completer,
		Publisher:  publisher,
		Logger:     log,
	}
	return NewService(deps)
}

func TestInterpretAndComposeRejectsEmptyQuery(t *testing.T) {
	svc := newService(fixtureCatalog(), nil, nil)

	for _, query := range []string{"", "   \n\t"} {
		_, err := svc.InterpretAndCompose(context.Background(), query, nil)
		appErr := apperr.AsAppError(err)
		if appErr == nil {
			t.Fatalf("expected app error for %q, got %v", query, err)
		}
		if appErr.Status != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", appErr.Status)
		}
		if appErr.Message != EmptyQueryMessage {
			t.Errorf("expected %q, got %q", EmptyQueryMessage, appErr.Message)
		}
	}
}

func TestInterpretAndCompose(t *testing.T) {
	svc := newService(fixtureCatalog(), nil, nil)

	resp, err := svc.InterpretAndCompose(context.Background(), "  I need a shirt and pants  ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.RecommendedProducts) == 0 {
		t.Fatalf("expected products, got none (message %q)", resp.Message)
	}
	if resp.Message == composer.NoMatchMessage {
		t.Errorf("expected a composed message, got the no-match reply")
	}
	if resp.CostBreakdown == nil {
		t.Errorf("expected a cost breakdown")
	}
}

func TestInterpretAndComposeNoMatch(t *testing.T) {
	svc := newService(memory.NewCatalog(), nil, nil)

	resp, err := svc.InterpretAndCompose(context.Background(), "show me a lehenga", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != composer.NoMatchMessage {
		t.Errorf("expected %q, got %q", composer.NoMatchMessage, resp.Message)
	}
	if resp.CostBreakdown != nil {
		t.Errorf("expected nil cost breakdown")
	}
}

func TestInterpretAndComposeCatalogFailure(t *testing.T) {
	svc := newService(failingCatalog{}, nil, nil)

	_, err := svc.InterpretAndCompose(context.Background(), "a shirt please", nil)
	appErr := apperr.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", appErr.Status)
	}
	if appErr.Message != ChatFailureMessage {
		t.Errorf("expected %q, got %q", ChatFailureMessage, appErr.Message)
	}
}

func TestParseCaption(t *testing.T) {
	vocab := config.DefaultVocabulary()

	tests := []struct {
		name     string
		caption  string
		expected domain.DetectedItem
	}{
		{"color and clothing group", "a man wearing a red shirt and jeans", domain.DetectedItem{Type: "shirt", Color: "red"}},
		{"group name differs from keyword", "a woman in a blue gown", domain.DetectedItem{Type: "dress", Color: "blue"}},
		{"first meaningful word", "person standing near a bicycle", domain.DetectedItem{Type: "near"}},
		{"nothing usable", "a cat", domain.DetectedItem{Type: "clothing item"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCaption(vocab, tt.caption)
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestComplements(t *testing.T) {
	completer := &recordingCompleter{reply: "Pair it with chinos."}
	publisher := &fakePublisher{}
	svc := newService(fixtureCatalog(), completer, publisher)

	result, err := svc.Complements(context.Background(), "u1", domain.ComplementRequest{
		Items: []domain.DetectedItem{{Type: "shirt", Color: "blue"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, p := range result.RecommendedProducts {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "p1,p3" {
		t.Fatalf("expected products p1,p3, got %v", ids)
	}
	if got := result.RecommendedProducts[1].Image; got != "sneakers.jpg" {
		t.Errorf("expected primary image, got %q", got)
	}
	if got := result.RecommendedProducts[0].MatchReasons; len(got) != 1 || got[0] != "pants" {
		t.Errorf("expected reason pants, got %v", got)
	}

	expected := "Based on the image, I see: blue shirt. Here are some outfit ideas: Pair it with chinos."
	if result.Message != expected {
		t.Errorf("expected %q, got %q", expected, result.Message)
	}
	if !strings.Contains(completer.system, "[Blue Chinos](/product/p1)\n[Blue Sneakers](/product/p3)") {
		t.Errorf("expected product links in system prompt, got %q", completer.system)
	}
	if completer.user != "I'm wearing this: Detected items: blue shirt.. What do you think?" {
		t.Errorf("unexpected user prompt %q", completer.user)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	if publisher.events[0].userID != "u1" || publisher.events[0].event != domain.EventAIChatResponse {
		t.Errorf("unexpected event %+v", publisher.events[0])
	}
}

func TestComplementsFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		catalog   out.CatalogRepository
		completer out.TextCompleter
		req       domain.ComplementRequest
		expected  string
	}{
		{
			name:      "completer failure with products",
			catalog:   fixtureCatalog(),
			completer: &recordingCompleter{err: errors.New("timeout")},
			req:       domain.ComplementRequest{Items: []domain.DetectedItem{{Type: "shirt", Color: "blue"}}},
			expected:  "Based on the image, I see: blue shirt. Here are some outfit ideas: " + CommentaryFallbackHit,
		},
		{
			name:     "no completer and no products",
			catalog:  memory.NewCatalog(),
			req:      domain.ComplementRequest{Caption: "a man wearing a green hat"},
			expected: "Based on the image, I see: green hat. Here are some outfit ideas: " + CommentaryFallbackEmpty,
		},
		{
			name:      "catalog failure",
			catalog:   failingCatalog{},
			completer: &recordingCompleter{reply: "unused"},
			req:       domain.ComplementRequest{Items: []domain.DetectedItem{{Type: "jeans"}}},
			expected:  "Based on the image, I see: jeans. Here are some outfit ideas: " + CommentaryFallbackEmpty,
		},
		{
			name:     "blank items",
			catalog:  fixtureCatalog(),
			req:      domain.ComplementRequest{Items: []domain.DetectedItem{{Type: "  "}}},
			expected: NoItemsMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(tt.catalog, tt.completer, nil)
			result, err := svc.Complements(context.Background(), "", tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Message != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result.Message)
			}
			if result.RecommendedProducts == nil {
				t.Errorf("expected non-nil product list")
			}
		})
	}
}

func TestComplementsRequiresInput(t *testing.T) {
	svc := newService(fixtureCatalog(), nil, nil)

	_, err := svc.Complements(context.Background(), "", domain.ComplementRequest{})
	if !apperr.Is(err, apperr.CodeBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}
