package mongodb

import (
	"math"
	"testing"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// rawField marshals doc and returns the value stored under "v".
func rawField(t *testing.T, value interface{}) bson.RawValue {
	t.Helper()
	data, err := bson.Marshal(bson.M{"v": value})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bson.Raw(data).Lookup("v")
}

func TestRefValue(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name   string
		value  interface{}
		kind   domain.ReferenceKind
		wantID string
	}{
		{"object id", oid, domain.RefID, oid.Hex()},
		{"string", "abc123", domain.RefID, "abc123"},
		{"null", nil, domain.RefNone, ""},
		{"boolean", true, domain.RefNone, ""},
		{"populated product", bson.M{"_id": oid, "name": "Linen Shirt", "price": 1200}, domain.RefPopulated, oid.Hex()},
		{"snapshot", bson.M{"productId": oid.Hex(), "name": "Linen Shirt"}, domain.RefSnapshot, oid.Hex()},
		{"snapshot with string _id", bson.M{"_id": "legacy-1", "name": "Old"}, domain.RefSnapshot, "legacy-1"},
		{"list", bson.A{nil, oid}, domain.RefList, oid.Hex()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := refValue(rawField(t, tt.value))
			if ref.Kind != tt.kind {
				t.Fatalf("expected kind %v, got %v", tt.kind, ref.Kind)
			}
			if got := ref.Normalize(); got != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, got)
			}
		})
	}
}

func TestSnapshotValue(t *testing.T) {
	oid := primitive.NewObjectID()
	ref := refValue(rawField(t, bson.M{
		"product":  bson.M{"_id": oid, "name": "Chinos"},
		"name":     "Chinos",
		"price":    int32(1499),
		"images":   bson.A{"a.jpg", "b.jpg"},
		"colors":   bson.A{"khaki", 7},
		"snapshot": bson.M{"brand": "Acme"},
	}))

	if ref.Kind != domain.RefSnapshot {
		t.Fatalf("expected snapshot, got %v", ref.Kind)
	}
	s := ref.Snapshot
	if s.Product.Kind != domain.RefPopulated {
		t.Errorf("expected populated product wrapper, got %v", s.Product.Kind)
	}
	if s.Price == nil || *s.Price != 1499 {
		t.Errorf("expected price 1499, got %v", s.Price)
	}
	if s.DiscountPrice != nil {
		t.Errorf("expected no discount price, got %v", *s.DiscountPrice)
	}
	if !s.HasImages || len(s.Images) != 2 {
		t.Errorf("expected two images, got %v", s.Images)
	}
	if len(s.Colors) != 1 || s.Colors[0] != "khaki" {
		t.Errorf("expected only string colors, got %v", s.Colors)
	}
	if s.Inner == nil || s.Inner.Brand != "Acme" {
		t.Errorf("expected inner snapshot brand Acme, got %+v", s.Inner)
	}
	if got := ref.Normalize(); got != oid.Hex() {
		t.Errorf("expected %q, got %q", oid.Hex(), got)
	}
}

func TestQuantityValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
	}{
		{"int32", int32(2), 2},
		{"int64", int64(3), 3},
		{"double", 1.5, 1.5},
		{"numeric string", " 4 ", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantityValue(rawField(t, tt.value)); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("invalid is NaN", func(t *testing.T) {
		if got := quantityValue(rawField(t, "two")); !math.IsNaN(got) {
			t.Errorf("expected NaN, got %v", got)
		}
	})
}

func TestEncodeReferenceRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	product := &domain.Product{ID: oid.Hex(), Name: "Oxford Shirt", Price: 999, Images: []string{"o.jpg"}}
	canonical := domain.NewSuggestionProduct(product)

	if encodeReference(domain.NoRef()) != nil {
		t.Fatal("expected nil for a missing reference")
	}

	decoded := refValue(rawField(t, encodeReference(domain.PopulatedRef(product))))
	got, changed := domain.Sanitize(decoded)
	if changed {
		t.Error("expected the stored shape to be canonical")
	}
	if got == nil || got.ProductID != canonical.ProductID || got.Name != canonical.Name {
		t.Errorf("expected %+v, got %+v", canonical, got)
	}
}

func TestOutfitsAndActivity(t *testing.T) {
	user := primitive.NewObjectID()
	top, bottom := primitive.NewObjectID(), primitive.NewObjectID()
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	data, err := bson.Marshal(bson.M{
		"_id": user,
		"styleSuggestions": bson.M{
			"gender":      "women",
			"lastUpdated": updated,
			"outfits":     bson.A{bson.M{"top": top, "bottom": bottom.Hex()}},
		},
		"wishlist": bson.A{top, "[object Object]"},
		"cart":     bson.M{"items": bson.A{bson.M{"product": bottom, "quantity": int32(2)}, "junk"}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	activity := activityValue(bson.Raw(data))
	if activity.UserID != user.Hex() {
		t.Errorf("expected user %q, got %q", user.Hex(), activity.UserID)
	}
	if len(activity.Outfits) != 1 || activity.Outfits[0].Top.Normalize() != top.Hex() {
		t.Fatalf("expected one outfit with top %q, got %+v", top.Hex(), activity.Outfits)
	}
	if activity.Outfits[0].Accessory.IsPresent() {
		t.Error("expected no accessory")
	}
	if len(activity.Wishlist) != 2 || activity.Wishlist[1].Normalize() != "" {
		t.Errorf("expected placeholder wishlist entry to resolve to nothing, got %+v", activity.Wishlist)
	}
	if len(activity.Cart) != 1 || activity.Cart[0].Quantity != 2 {
		t.Errorf("expected one cart line of quantity 2, got %+v", activity.Cart)
	}

	s := suggestionValue(bson.Raw(data).Lookup("styleSuggestions"))
	if s.Gender != domain.GenderWomen || !s.LastUpdated.Equal(updated) {
		t.Errorf("expected women at %v, got %s at %v", updated, s.Gender, s.LastUpdated)
	}
}

func TestOrderLinesValue(t *testing.T) {
	product := primitive.NewObjectID()
	data, err := bson.Marshal(bson.M{"products": bson.A{
		bson.M{"product": product, "quantity": int32(1), "price": 2500.0},
		bson.M{"product": product, "price": "n/a"},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	lines := orderLinesValue(bson.Raw(data))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Price != 2500 || lines[0].Quantity != 1 {
		t.Errorf("expected 1 x 2500, got %v x %v", lines[0].Quantity, lines[0].Price)
	}
	if !math.IsNaN(lines[1].Quantity) || !math.IsNaN(lines[1].Price) {
		t.Errorf("expected NaN for unreadable values, got %v x %v", lines[1].Quantity, lines[1].Price)
	}
}

func TestBuildFilter(t *testing.T) {
	excluded := primitive.NewObjectID()
	q := out.ProductQuery{InStock: true, ExcludeIDs: []string{excluded.Hex(), "not-hex"}}
	q.Must(out.TextMatch{Fields: []string{domain.FieldCategory, domain.FieldName}, Patterns: out.Words("shirt")})
	q.Must(out.TextMatch{})
	q.MustNot(out.TextMatch{Fields: []string{domain.FieldTags}, Patterns: out.Contains("men")})

	filter := buildFilter(q)
	keys := make([]string, len(filter))
	for i, e := range filter {
		keys[i] = e.Key
	}
	want := []string{"stock", "_id", "$and", "$nor"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("expected key %q at %d, got %q", want[i], i, keys[i])
		}
	}

	nin := filter[1].Value.(bson.M)["$nin"].([]primitive.ObjectID)
	if len(nin) != 1 || nin[0] != excluded {
		t.Errorf("expected only the valid id excluded, got %v", nin)
	}

	and := filter[2].Value.(bson.A)
	if len(and) != 1 {
		t.Fatalf("expected 1 required clause, got %d", len(and))
	}
	or := and[0].(bson.M)["$or"].(bson.A)
	if len(or) != 2 {
		t.Fatalf("expected one regex per field, got %d", len(or))
	}
	regex := or[0].(bson.M)[domain.FieldCategory].(primitive.Regex)
	if regex.Options != "i" || regex.Pattern != out.Words("shirt")[0] {
		t.Errorf("expected case-insensitive word regex, got %+v", regex)
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	if filter := buildFilter(out.ProductQuery{}); len(filter) != 0 {
		t.Errorf("expected an empty filter, got %v", filter)
	}
	if sortSpec(out.SortNone) != nil {
		t.Error("expected no sort")
	}
	if sort := sortSpec(out.SortTopRated); len(sort) != 2 || sort[0].Key != "rating" {
		t.Errorf("expected rating first, got %v", sort)
	}
}
