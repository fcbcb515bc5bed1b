// Package memory provides in-process stores used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/goccy/go-json"
)

// Catalog is an in-memory product store. Query semantics follow the Mongo
// adapter: case-insensitive regex clauses over the named fields.
type Catalog struct {
	mu       sync.RWMutex
	products []*domain.Product
	byID     map[string]*domain.Product
}

var _ out.CatalogRepository = (*Catalog)(nil)

func NewCatalog(products ...*domain.Product) *Catalog {
	c := &Catalog{byID: make(map[string]*domain.Product)}
	for _, p := range products {
		c.Add(p)
	}
	return c
}

// LoadCatalogFixture reads a JSON array of products.
func LoadCatalogFixture(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}
	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog fixture: %w", err)
	}
	return NewCatalog(products...), nil
}

// Add inserts or replaces a product.
func (c *Catalog) Add(p *domain.Product) {
	if p == nil || p.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[p.ID]; exists {
		for i, existing := range c.products {
			if existing.ID == p.ID {
				c.products[i] = p
				break
			}
		}
	} else {
		c.products = append(c.products, p)
	}
	c.byID[p.ID] = p
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Catalog) FindOne(ctx context.Context, q out.ProductQuery) (*domain.Product, error) {
	q.Limit = 1
	found, err := c.Find(ctx, q)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (c *Catalog) Find(ctx context.Context, q out.ProductQuery) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := compileClauses(q.All)
	if err != nil {
		return nil, err
	}
	none, err := compileClauses(q.None)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	c.mu.RLock()
	var matched []*domain.Product
	for _, p := range c.products {
		if q.InStock && p.Stock <= 0 {
			continue
		}
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		if !matchesAll(p, all) || matchesSome(p, none) {
			continue
		}
		matched = append(matched, p)
	}
	c.mu.RUnlock()

	sortProducts(matched, q.Sort)

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (c *Catalog) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id], nil
}

func (c *Catalog) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.byID[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

// =============================================================================
// Query evaluation
// =============================================================================

type compiledClause struct {
	fields   []string
	patterns []*regexp.Regexp
}

func compileClauses(clauses []out.TextMatch) ([]compiledClause, error) {
	compiled := make([]compiledClause, 0, len(clauses))
	for _, clause := range clauses {
		if clause.IsEmpty() {
			continue
		}
		cc := compiledClause{fields: clause.Fields}
		for _, pattern := range clause.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		compiled = append(compiled, cc)
	}
	return compiled, nil
}

func (cc compiledClause) matches(p *domain.Product) bool {
	for _, field := range cc.fields {
		for _, value := range p.FieldValues(field) {
			if value == "" {
				continue
			}
			for _, re := range cc.patterns {
				if re.MatchString(value) {
					return true
				}
			}
		}
	}
	return false
}

func matchesAll(p *domain.Product, clauses []compiledClause) bool {
	for _, cc := range clauses {
		if !cc.matches(p) {
			return false
		}
	}
	return true
}

func matchesSome(p *domain.Product, clauses []compiledClause) bool {
	for _, cc := range clauses {
		if cc.matches(p) {
			return true
		}
	}
	return false
}

func sortProducts(products []*domain.Product, order out.ProductSort) {
	switch order {
	case out.SortBestPrice:
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i], products[j]
			if a.DiscountPrice != b.DiscountPrice {
				return a.DiscountPrice < b.DiscountPrice
			}
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.Rating > b.Rating
		})
	case out.SortTopRated:
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i], products[j]
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	}
}
