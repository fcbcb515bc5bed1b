package out

import (
	"context"
	"regexp"
	"strings"

	"stylist_server/core/domain"
)

// CatalogRepository - 상품 카탈로그 조회
type CatalogRepository interface {
	// FindOne returns the first product matching q, or nil when nothing matches.
	FindOne(ctx context.Context, q ProductQuery) (*domain.Product, error)
	Find(ctx context.Context, q ProductQuery) ([]*domain.Product, error)
	// FindByID returns nil, nil for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
}

// TextMatch is satisfied when any pattern matches any of the fields.
// Patterns are regular expressions evaluated case-insensitively.
type TextMatch struct {
	Fields   []string
	Patterns []string
}

// IsEmpty reports whether the clause would match nothing.
func (m TextMatch) IsEmpty() bool {
	return len(m.Fields) == 0 || len(m.Patterns) == 0
}

// ProductSort selects the result order.
type ProductSort int

const (
	SortNone ProductSort = iota
	// SortBestPrice orders by discountPrice asc, price asc, rating desc.
	SortBestPrice
	// SortTopRated orders by rating desc, createdAt desc.
	SortTopRated
)

// ProductQuery is a store-neutral product filter. Every All clause must hold
// and no None clause may hold.
type ProductQuery struct {
	All        []TextMatch
	None       []TextMatch
	InStock    bool
	ExcludeIDs []string
	Sort       ProductSort
	Limit      int
}

// Must appends a required clause, ignoring empty ones.
func (q *ProductQuery) Must(m TextMatch) {
	if !m.IsEmpty() {
		q.All = append(q.All, m)
	}
}

// MustNot appends an exclusion clause, ignoring empty ones.
func (q *ProductQuery) MustNot(m TextMatch) {
	if !m.IsEmpty() {
		q.None = append(q.None, m)
	}
}

// Contains builds literal substring patterns.
func Contains(values ...string) []string {
	patterns := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		patterns = append(patterns, regexp.QuoteMeta(v))
	}
	return patterns
}

// Words builds patterns with the same semantics as domain.MatchesPattern:
// phrases match as substrings, single words on word boundaries with an
// optional plural suffix.
func Words(values ...string) []string {
	var words []string
	var patterns []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if strings.Contains(v, " ") {
			patterns = append(patterns, regexp.QuoteMeta(v))
			continue
		}
		words = append(words, regexp.QuoteMeta(v))
	}
	if len(words) > 0 {
		patterns = append(patterns, `\b(?:`+strings.Join(words, "|")+`)(?:e?s)?\b`)
	}
	return patterns
}
