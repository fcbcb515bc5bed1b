package stylist

import (
	"context"
	"time"

	"stylist_server/adapter/out/memory"
	"stylist_server/config"
	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/rs/zerolog"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string, opts ...out.CompletionOption) (string, error) {
	c.calls++
	return c.reply, c.err
}

func (c *fakeCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...out.CompletionOption) (string, error) {
	c.calls++
	return c.reply, c.err
}

func (c *fakeCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, result interface{}, opts ...out.CompletionOption) error {
	c.calls++
	return c.err
}

type mapGenderCache map[string]domain.Gender

func (m mapGenderCache) GetGender(ctx context.Context, name string) (domain.Gender, error) {
	return m[name], nil
}

func (m mapGenderCache) SetGender(ctx context.Context, name string, gender domain.Gender) error {
	m[name] = gender
	return nil
}

type countingTrigger struct {
	n int
}

func (c *countingTrigger) Trigger() { c.n++ }

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func womenTop1() *domain.Product {
	return &domain.Product{ID: "wt1", Name: "Floral Blouse", Category: "Tops", Tags: []string{"women"}, Colors: []string{"pink"}, Price: 1200, Stock: 3, Rating: 4.5}
}

func fixtureProducts() []*domain.Product {
	return []*domain.Product{
		womenTop1(),
		{ID: "wt2", Name: "Silk Top", Category: "Tops", Tags: []string{"women"}, Price: 1500, Stock: 2, Rating: 4.0},
		{ID: "wb1", Name: "Pleated Skirt", Category: "Skirts", Tags: []string{"women"}, Price: 1000, Stock: 2, Rating: 4.2},
		{ID: "mt1", Name: "Oxford Shirt", Category: "Shirts", Tags: []string{"men"}, Price: 1800, Stock: 5, Rating: 4.1},
		{ID: "mb1", Name: "Slim Chinos", Category: "Pants", Tags: []string{"men"}, Price: 2000, Stock: 4, Rating: 3.9},
		{ID: "ma1", Name: "Leather Belt", Category: "Accessories", Subcategory: "Belts", Tags: []string{"men"}, Price: 700, Stock: 9, Rating: 4.8},
	}
}

func newTestService(products []*domain.Product, users *memory.Users, completer out.TextCompleter, trigger MetricsTrigger) *Service {
	vocab := config.DefaultVocabulary()
	log := zerolog.Nop()
	catalog := memory.NewCatalog(products...)
	deps := ServiceDeps{
		Vocabulary: vocab,
		Users:      users,
		Catalog:    catalog,
		Detector:   NewGenderDetector(vocab, nil, nil, log),
		Pools:      NewPoolFetcher(catalog, vocab, log),
		Completer:  completer,
		Now:        func() time.Time { return fixedNow },
		Logger:     log,
	}
	if trigger != nil {
		deps.Metrics = trigger
	}
	return NewService(deps)
}
