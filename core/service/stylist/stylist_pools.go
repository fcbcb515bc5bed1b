package stylist

import (
	"context"
	"fmt"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/pkg/apperr"

	"github.com/rs/zerolog"
)

var (
	poolFields   = []string{domain.FieldCategory, domain.FieldSubcategory, domain.FieldName}
	genderFields = []string{domain.FieldCategory, domain.FieldSubcategory, domain.FieldTags, domain.FieldName, domain.FieldDescription}
)

// Pools are the categorized candidates an outfit is drawn from, best rated first.
type Pools struct {
	Tops        []*domain.Product
	Bottoms     []*domain.Product
	Accessories []*domain.Product
}

func (p Pools) Counts() apperr.CatalogCounts {
	return apperr.CatalogCounts{
		Tops:        len(p.Tops),
		Bottoms:     len(p.Bottoms),
		Accessories: len(p.Accessories),
	}
}

// PoolFetcher loads candidate pools from the catalog.
type PoolFetcher struct {
	catalog out.CatalogRepository
	vocab   *domain.Vocabulary
	log     zerolog.Logger
}

func NewPoolFetcher(catalog out.CatalogRepository, vocab *domain.Vocabulary, log zerolog.Logger) *PoolFetcher {
	return &PoolFetcher{
		catalog: catalog,
		vocab:   vocab,
		log:     log.With().Str("component", "pools").Logger(),
	}
}

// Fetch queries each category with the gender filter and drops opposite
// gender products. A category left empty is queried again without the
// gender filter and re-filtered per product.
func (f *PoolFetcher) Fetch(ctx context.Context, gender domain.Gender, limit int) (Pools, error) {
	var pools Pools
	categories := []struct {
		name     string
		keywords []string
		target   *[]*domain.Product
		retryCap int
	}{
		{"tops", f.vocab.Pools.Tops, &pools.Tops, limit * 2},
		{"bottoms", f.vocab.Pools.Bottoms, &pools.Bottoms, limit * 2},
		{"accessories", f.vocab.Pools.Accessories, &pools.Accessories, limit},
	}

	for _, c := range categories {
		products, err := f.query(ctx, c.keywords, gender, true, limit)
		if err != nil {
			return Pools{}, fmt.Errorf("fetch %s: %w", c.name, err)
		}
		products = f.withoutOpposite(products, gender)

		if len(products) == 0 {
			f.log.Debug().Str("category", c.name).Str("gender", string(gender)).Msg("empty pool, retrying without gender filter")
			products, err = f.query(ctx, c.keywords, gender, false, c.retryCap)
			if err != nil {
				return Pools{}, fmt.Errorf("fetch %s without gender: %w", c.name, err)
			}
			products = f.withoutOpposite(products, gender)
			if len(products) > limit {
				products = products[:limit]
			}
		}
		*c.target = products
	}

	f.log.Debug().
		Str("gender", string(gender)).
		Int("tops", len(pools.Tops)).
		Int("bottoms", len(pools.Bottoms)).
		Int("accessories", len(pools.Accessories)).
		Msg("pools fetched")
	return pools, nil
}

func (f *PoolFetcher) query(ctx context.Context, keywords []string, gender domain.Gender, withGender bool, limit int) ([]*domain.Product, error) {
	q := out.ProductQuery{InStock: true, Sort: out.SortTopRated, Limit: limit}
	q.Must(out.TextMatch{Fields: poolFields, Patterns: out.Words(keywords...)})
	if withGender && gender.IsSpecific() {
		q.Must(out.TextMatch{Fields: genderFields, Patterns: out.Words(f.vocab.ProductGenderMarkers(gender)...)})
	}
	return f.catalog.Find(ctx, q)
}

func (f *PoolFetcher) withoutOpposite(products []*domain.Product, gender domain.Gender) []*domain.Product {
	opposite := gender.Opposite()
	if opposite == "" {
		return products
	}
	kept := products[:0:0]
	for _, p := range products {
		if f.vocab.ClassifyProductGender(p) != opposite {
			kept = append(kept, p)
		}
	}
	return kept
}
