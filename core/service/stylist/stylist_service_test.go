package stylist

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"stylist_server/adapter/out/memory"
	"stylist_server/config"
	"stylist_server/core/domain"
	"stylist_server/pkg/apperr"
)

func TestGetStickySuggestion(t *testing.T) {
	users := memory.NewUsers()
	users.Put(domain.UserProfile{ID: "64b7f0c2a1e4d5f6a7b8c9d0", Name: "Priya Sharma"})
	trigger := &countingTrigger{}
	svc := newTestService(fixtureProducts(), users, nil, trigger)
	ctx := context.Background()

	first, err := svc.GetStickySuggestion(ctx, "64b7f0c2a1e4d5f6a7b8c9d0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Errorf("expected cached=false on first call")
	}
	if first.Gender != domain.GenderWomen {
		t.Errorf("expected gender %q, got %q", domain.GenderWomen, first.Gender)
	}
	if len(first.Outfits) != 1 {
		t.Fatalf("expected 1 outfit, got %d", len(first.Outfits))
	}
	outfit := first.Outfits[0]
	if outfit.Top.ProductID != "wt1" && outfit.Top.ProductID != "wt2" {
		t.Errorf("expected a women's top, got %q", outfit.Top.ProductID)
	}
	if outfit.Bottom.ProductID != "wb1" {
		t.Errorf("expected bottom wb1, got %q", outfit.Bottom.ProductID)
	}
	if outfit.Accessory != nil {
		t.Errorf("expected no accessory, got %q", outfit.Accessory.ProductID)
	}
	if !first.LastUpdated.Equal(fixedNow) {
		t.Errorf("expected lastUpdated %v, got %v", fixedNow, first.LastUpdated)
	}
	if trigger.n != 1 {
		t.Errorf("expected 1 metrics trigger, got %d", trigger.n)
	}

	second, err := svc.GetStickySuggestion(ctx, "64b7f0c2a1e4d5f6a7b8c9d0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Errorf("expected cached=true on second call")
	}
	if !reflect.DeepEqual(first.Outfits, second.Outfits) {
		t.Errorf("expected identical outfits, got %+v and %+v", first.Outfits, second.Outfits)
	}
	if trigger.n != 1 {
		t.Errorf("expected no further trigger, got %d", trigger.n)
	}
}

func TestGetStickySuggestionMenAreGenderConsistent(t *testing.T) {
	users := memory.NewUsers()
	users.Put(domain.UserProfile{ID: "u-john", Name: "John Carter"})
	svc := newTestService(fixtureProducts(), users, nil, nil)

	result, err := svc.GetStickySuggestion(context.Background(), "u-john")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outfit := result.Outfits[0]
	if outfit.Top.ProductID != "mt1" || outfit.Bottom.ProductID != "mb1" {
		t.Errorf("expected mt1/mb1, got %s/%s", outfit.Top.ProductID, outfit.Bottom.ProductID)
	}
	if outfit.Accessory == nil || outfit.Accessory.ProductID != "ma1" {
		t.Errorf("expected accessory ma1, got %+v", outfit.Accessory)
	}
}

func TestGetStickySuggestionNormalizesLegacyCache(t *testing.T) {
	users := memory.NewUsers()
	bottom := &domain.Product{ID: "wb1", Name: "Pleated Skirt", Price: 1000, Images: []string{"skirt.jpg"}}
	users.Put(domain.UserProfile{
		ID:   "u-legacy",
		Name: "Priya",
		StyleSuggestions: &domain.CachedStyleSuggestion{
			Gender: domain.GenderWomen,
			Outfits: []domain.StoredOutfit{{
				Top:       domain.IDRef("wt1"),
				Bottom:    domain.PopulatedRef(bottom),
				Accessory: domain.IDRef("null"),
			}},
			LastUpdated: fixedNow.Add(-48 * time.Hour),
		},
	})
	trigger := &countingTrigger{}
	svc := newTestService(fixtureProducts(), users, nil, trigger)

	result, err := svc.GetStickySuggestion(context.Background(), "u-legacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Cached {
		t.Errorf("expected cached=true")
	}
	outfit := result.Outfits[0]
	if outfit.Top.ProductID != "wt1" || outfit.Top.ID != "wt1" || outfit.Top.LegacyID != "wt1" {
		t.Errorf("expected canonical top wt1, got %+v", outfit.Top)
	}
	if outfit.Bottom.PrimaryImage != "skirt.jpg" {
		t.Errorf("expected primary image skirt.jpg, got %q", outfit.Bottom.PrimaryImage)
	}
	if outfit.Accessory != nil {
		t.Errorf("expected placeholder accessory to be dropped")
	}
	if trigger.n != 0 {
		t.Errorf("expected no metrics trigger on a cached read, got %d", trigger.n)
	}

	stored, _ := users.GetProfile(context.Background(), "u-legacy")
	if got := stored.StyleSuggestions.Outfits[0].Top.Kind; got != domain.RefSnapshot {
		t.Errorf("expected rewritten top to be a snapshot, got %s", got)
	}
	if !stored.StyleSuggestions.LastUpdated.Equal(result.LastUpdated) {
		t.Errorf("expected lastUpdated to be preserved")
	}
}

func TestGetStickySuggestionErrors(t *testing.T) {
	tests := []struct {
		name     string
		products []*domain.Product
		userID   string
		code     string
		reason   string
	}{
		{"unknown user", fixtureProducts(), "missing", apperr.CodeNotFound, ""},
		{"no bottoms", []*domain.Product{womenTop1()}, "u1", apperr.CodeInsufficientCatalog, "empty_pool"},
		{
			name: "only a combined set",
			products: []*domain.Product{
				{ID: "set1", Name: "Top and Skirt Set", Category: "Sets", Tags: []string{"women"}, Price: 2500, Stock: 2},
			},
			userID: "u1",
			code:   apperr.CodeInsufficientCatalog,
			reason: "gender_filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := memory.NewUsers()
			users.Put(domain.UserProfile{ID: "u1", Name: "Priya"})
			svc := newTestService(tt.products, users, nil, nil)

			_, err := svc.GetStickySuggestion(context.Background(), tt.userID)
			appErr := apperr.AsAppError(err)
			if appErr == nil {
				t.Fatalf("expected app error, got %v", err)
			}
			if appErr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, appErr.Code)
			}
			if tt.reason != "" && appErr.Details["reason"] != tt.reason {
				t.Errorf("expected reason %q, got %v", tt.reason, appErr.Details["reason"])
			}
		})
	}
}

func TestRefreshSuggestion(t *testing.T) {
	users := memory.NewUsers()
	users.Put(domain.UserProfile{
		ID:   "u1",
		Name: "Priya",
		StyleSuggestions: &domain.CachedStyleSuggestion{
			Gender:      domain.GenderWomen,
			Outfits:     []domain.StoredOutfit{{Top: domain.IDRef("old-top"), Bottom: domain.IDRef("old-bottom")}},
			LastUpdated: fixedNow.Add(-time.Hour),
		},
	})
	trigger := &countingTrigger{}
	svc := newTestService(fixtureProducts(), users, nil, trigger)
	ctx := context.Background()

	first, err := svc.RefreshSuggestion(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Errorf("expected cached=false")
	}
	if first.Outfits[0].Top.ProductID == "old-top" {
		t.Errorf("expected the cache to be replaced")
	}
	if trigger.n != 1 {
		t.Errorf("expected 1 metrics trigger, got %d", trigger.n)
	}

	stored, _ := users.GetProfile(ctx, "u1")
	if !stored.StyleSuggestions.LastUpdated.Equal(fixedNow) {
		t.Errorf("expected lastUpdated %v, got %v", fixedNow, stored.StyleSuggestions.LastUpdated)
	}

	second, err := svc.RefreshSuggestion(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Outfits, second.Outfits) {
		t.Errorf("expected the same outfit for the same user and time")
	}
}

func TestRefreshSuggestionVariesOverTime(t *testing.T) {
	var products []*domain.Product
	for i := 1; i <= 6; i++ {
		products = append(products,
			&domain.Product{ID: fmt.Sprintf("wt%d", i), Name: fmt.Sprintf("Blouse %d", i), Category: "Tops", Tags: []string{"women"}, Price: 1000, Stock: 2, Rating: float64(i)},
			&domain.Product{ID: fmt.Sprintf("wb%d", i), Name: fmt.Sprintf("Skirt %d", i), Category: "Skirts", Tags: []string{"women"}, Price: 900, Stock: 2, Rating: float64(i)},
			&domain.Product{ID: fmt.Sprintf("mt%d", i), Name: fmt.Sprintf("Oxford Shirt %d", i), Category: "Shirts", Tags: []string{"men"}, Price: 1100, Stock: 2, Rating: float64(i)},
			&domain.Product{ID: fmt.Sprintf("mb%d", i), Name: fmt.Sprintf("Chinos %d", i), Category: "Pants", Tags: []string{"men"}, Price: 1200, Stock: 2, Rating: float64(i)},
		)
	}

	users := memory.NewUsers()
	users.Put(domain.UserProfile{ID: "64b7f0c2a1e4d5f6a7b8c9d0", Name: "Priya"})
	svc := newTestService(products, users, nil, nil)
	vocab := config.DefaultVocabulary()
	catalog := memory.NewCatalog(products...)

	now := fixedNow
	svc.now = func() time.Time { return now }

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		now = fixedNow.Add(time.Duration(i) * 17 * time.Minute)

		result, err := svc.RefreshSuggestion(context.Background(), "64b7f0c2a1e4d5f6a7b8c9d0")
		if err != nil {
			t.Fatalf("refresh %d: unexpected error: %v", i, err)
		}
		if result.Gender != domain.GenderWomen {
			t.Fatalf("expected gender %q, got %q", domain.GenderWomen, result.Gender)
		}
		outfit := result.Outfits[0]
		for _, sp := range []*domain.SuggestionProduct{outfit.Top, outfit.Bottom} {
			p, _ := catalog.FindByID(context.Background(), sp.ProductID)
			if p == nil || vocab.ClassifyProductGender(p) == domain.GenderMen {
				t.Errorf("refresh %d: unexpected product %q for a women's outfit", i, sp.ProductID)
			}
		}
		seen[outfit.Top.ProductID+"/"+outfit.Bottom.ProductID] = struct{}{}
	}

	if len(seen) < 2 {
		t.Errorf("expected refreshes at different times to vary, got %v", seen)
	}
}

func TestRefreshSuggestionInsufficientCatalog(t *testing.T) {
	manyTops := make([]*domain.Product, 0, 12)
	for i := 1; i <= 12; i++ {
		manyTops = append(manyTops, &domain.Product{ID: fmt.Sprintf("wt%d", i), Name: fmt.Sprintf("Blouse %d", i), Category: "Tops", Tags: []string{"women"}, Price: 1000, Stock: 1})
	}

	tests := []struct {
		name     string
		products []*domain.Product
		reason   string
		tops     int
	}{
		{"single top", []*domain.Product{womenTop1()}, "empty_pool", 1},
		{"counts come from the larger pool", manyTops, "empty_pool", 12},
		{
			name: "only a combined set",
			products: []*domain.Product{
				{ID: "set1", Name: "Top and Skirt Set", Category: "Sets", Tags: []string{"women"}, Price: 2500, Stock: 2},
			},
			reason: "gender_filter",
			tops:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := memory.NewUsers()
			users.Put(domain.UserProfile{ID: "u1", Name: "Priya"})
			svc := newTestService(tt.products, users, nil, nil)

			_, err := svc.RefreshSuggestion(context.Background(), "u1")
			if !apperr.Is(err, apperr.CodeInsufficientCatalog) {
				t.Fatalf("expected insufficient catalog, got %v", err)
			}
			details := apperr.AsAppError(err).Details
			if details["reason"] != tt.reason {
				t.Errorf("expected reason %q, got %v", tt.reason, details["reason"])
			}
			if got := details["tops"]; got != tt.tops {
				t.Errorf("expected tops=%d, got %v", tt.tops, got)
			}
		})
	}
}
