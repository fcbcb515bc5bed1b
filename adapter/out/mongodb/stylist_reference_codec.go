package mongodb

import (
	"math"
	"strconv"
	"strings"

	"stylist_server/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// =============================================================================
// Product reference codec
// =============================================================================

// snapshotKeys mark an embedded document as a snapshot rather than a
// populated product.
var snapshotKeys = []string{"productId", "product", "snapshot", "id"}

// refValue decodes any stored value into a product reference. Unknown shapes
// become RefNone, never an error.
func refValue(v bson.RawValue) domain.ProductReference {
	switch v.Type {
	case bsontype.String:
		return domain.IDRef(v.StringValue())
	case bsontype.ObjectID:
		return domain.IDRef(v.ObjectID().Hex())
	case bsontype.Int32, bsontype.Int64, bsontype.Double:
		if n, ok := numberValue(v); ok {
			return domain.IDRef(strconv.FormatFloat(n, 'f', -1, 64))
		}
		return domain.NoRef()
	case bsontype.Array:
		values, err := v.Array().Values()
		if err != nil {
			return domain.NoRef()
		}
		items := make([]domain.ProductReference, 0, len(values))
		for _, item := range values {
			items = append(items, refValue(item))
		}
		return domain.ListRef(items...)
	case bsontype.EmbeddedDocument:
		doc := v.Document()
		if isSnapshot(doc) {
			return domain.SnapshotRef(snapshotValue(doc))
		}
		var pd productDocument
		if err := bson.Unmarshal(doc, &pd); err != nil {
			return domain.SnapshotRef(snapshotValue(doc))
		}
		return domain.PopulatedRef(pd.toDomain())
	default:
		return domain.NoRef()
	}
}

func isSnapshot(doc bson.Raw) bool {
	for _, key := range snapshotKeys {
		if _, err := doc.LookupErr(key); err == nil {
			return true
		}
	}
	_, err := doc.LookupErr("_id")
	return err != nil
}

func snapshotValue(doc bson.Raw) *domain.ProductSnapshot {
	s := &domain.ProductSnapshot{
		ProductID:     refValue(doc.Lookup("productId")),
		ObjectID:      refValue(doc.Lookup("_id")),
		LegacyID:      refValue(doc.Lookup("id")),
		Product:       refValue(doc.Lookup("product")),
		Name:          stringValue(doc.Lookup("name")),
		Brand:         stringValue(doc.Lookup("brand")),
		Category:      stringValue(doc.Lookup("category")),
		PrimaryImage:  stringValue(doc.Lookup("primaryImage")),
		Price:         priceValue(doc.Lookup("price")),
		DiscountPrice: priceValue(doc.Lookup("discountPrice")),
	}
	if images := doc.Lookup("images"); images.Type == bsontype.Array {
		s.Images = stringsValue(images)
		s.HasImages = true
	}
	s.Colors = stringsValue(doc.Lookup("colors"))
	s.Sizes = stringsValue(doc.Lookup("sizes"))

	if inner := doc.Lookup("snapshot"); inner.Type == bsontype.EmbeddedDocument {
		s.Inner = snapshotValue(inner.Document())
	}
	return s
}

func stringValue(v bson.RawValue) string {
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

func stringsValue(v bson.RawValue) []string {
	if v.Type != bsontype.Array {
		return nil
	}
	values, err := v.Array().Values()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, item := range values {
		if s, ok := item.StringValueOK(); ok {
			out = append(out, s)
		}
	}
	return out
}

func priceValue(v bson.RawValue) *float64 {
	if n, ok := numberValue(v); ok {
		return &n
	}
	return nil
}

// numberValue reads numeric BSON and numeric strings.
func numberValue(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Double:
		return v.Double(), true
	case bsontype.Int32:
		return float64(v.Int32()), true
	case bsontype.Int64:
		return float64(v.Int64()), true
	case bsontype.Decimal128:
		f, err := strconv.ParseFloat(v.Decimal128().String(), 64)
		return f, err == nil
	case bsontype.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.StringValue()), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// quantityValue returns NaN for missing or non-numeric values so callers apply
// their own defaults.
func quantityValue(v bson.RawValue) float64 {
	if n, ok := numberValue(v); ok {
		return n
	}
	return math.NaN()
}

// encodeReference writes a reference in the canonical snapshot shape.
func encodeReference(ref domain.ProductReference) interface{} {
	sp, _ := domain.Sanitize(ref)
	if sp == nil {
		return nil
	}
	return bson.D{
		{Key: "productId", Value: sp.ProductID},
		{Key: "_id", Value: sp.ID},
		{Key: "id", Value: sp.LegacyID},
		{Key: "name", Value: sp.Name},
		{Key: "brand", Value: sp.Brand},
		{Key: "category", Value: sp.Category},
		{Key: "price", Value: sp.Price},
		{Key: "discountPrice", Value: sp.DiscountPrice},
		{Key: "images", Value: sp.Images},
		{Key: "primaryImage", Value: sp.PrimaryImage},
		{Key: "colors", Value: sp.Colors},
		{Key: "sizes", Value: sp.Sizes},
	}
}

// objectIDs converts hex ids, dropping malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
