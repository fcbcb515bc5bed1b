package mongodb

import (
	"context"
	"fmt"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserAdapter implements out.UserRepository over the users collection.
type UserAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewUserAdapter(db *mongo.Database) *UserAdapter {
	return &UserAdapter{
		db:         db,
		collection: db.Collection(collectionUsers),
	}
}

var _ out.UserRepository = (*UserAdapter)(nil)

// =============================================================================
// Profile
// =============================================================================

func (a *UserAdapter) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	oid, err := primitive.ObjectIDFromHex(domain.NormalizeID(userID))
	if err != nil {
		return nil, nil
	}

	opts := options.FindOne().SetProjection(bson.M{"name": 1, "styleSuggestions": 1})
	raw, err := a.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Raw()
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &domain.UserProfile{
		ID:               oid.Hex(),
		Name:             stringValue(raw.Lookup("name")),
		StyleSuggestions: suggestionValue(raw.Lookup("styleSuggestions")),
	}, nil
}

func (a *UserAdapter) SaveStyleSuggestion(ctx context.Context, userID string, suggestion *domain.CachedStyleSuggestion) error {
	oid, err := primitive.ObjectIDFromHex(domain.NormalizeID(userID))
	if err != nil {
		return fmt.Errorf("invalid user id %q", userID)
	}

	outfits := bson.A{}
	for _, o := range suggestion.Outfits {
		outfits = append(outfits, bson.D{
			{Key: "top", Value: encodeReference(o.Top)},
			{Key: "bottom", Value: encodeReference(o.Bottom)},
			{Key: "accessory", Value: encodeReference(o.Accessory)},
		})
	}

	update := bson.M{"$set": bson.M{"styleSuggestions": bson.D{
		{Key: "gender", Value: string(suggestion.Gender)},
		{Key: "outfits", Value: outfits},
		{Key: "lastUpdated", Value: suggestion.LastUpdated},
	}}}

	result, err := a.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to save style suggestion: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// =============================================================================
// Activity scan
// =============================================================================

func (a *UserAdapter) ScanActivity(ctx context.Context, fn func(*domain.UserActivity) error) error {
	opts := options.Find().SetProjection(bson.M{"styleSuggestions": 1, "wishlist": 1, "cart": 1})
	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to scan users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		if err := fn(activityValue(cursor.Current)); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate users: %w", err)
	}
	return nil
}

// =============================================================================
// Decoding
// =============================================================================

func suggestionValue(v bson.RawValue) *domain.CachedStyleSuggestion {
	if v.Type != bsontype.EmbeddedDocument {
		return nil
	}
	doc := v.Document()

	s := &domain.CachedStyleSuggestion{
		Gender:  domain.Gender(stringValue(doc.Lookup("gender"))),
		Outfits: outfitsValue(doc.Lookup("outfits")),
	}
	if t, ok := doc.Lookup("lastUpdated").TimeOK(); ok {
		s.LastUpdated = t.UTC()
	}
	return s
}

func outfitsValue(v bson.RawValue) []domain.StoredOutfit {
	if v.Type != bsontype.Array {
		return nil
	}
	values, err := v.Array().Values()
	if err != nil {
		return nil
	}

	outfits := make([]domain.StoredOutfit, 0, len(values))
	for _, item := range values {
		if item.Type != bsontype.EmbeddedDocument {
			outfits = append(outfits, domain.StoredOutfit{})
			continue
		}
		doc := item.Document()
		outfits = append(outfits, domain.StoredOutfit{
			Top:       refValue(doc.Lookup("top")),
			Bottom:    refValue(doc.Lookup("bottom")),
			Accessory: refValue(doc.Lookup("accessory")),
		})
	}
	return outfits
}

func activityValue(doc bson.Raw) *domain.UserActivity {
	activity := &domain.UserActivity{}
	if oid, ok := doc.Lookup("_id").ObjectIDOK(); ok {
		activity.UserID = oid.Hex()
	}
	if s := suggestionValue(doc.Lookup("styleSuggestions")); s != nil {
		activity.Outfits = s.Outfits
	}

	if wishlist := doc.Lookup("wishlist"); wishlist.Type == bsontype.Array {
		if values, err := wishlist.Array().Values(); err == nil {
			for _, item := range values {
				activity.Wishlist = append(activity.Wishlist, refValue(item))
			}
		}
	}

	if cart := doc.Lookup("cart"); cart.Type == bsontype.EmbeddedDocument {
		activity.Cart = linesValue(cart.Document().Lookup("items"), func(line bson.Raw) domain.CartLine {
			return domain.CartLine{
				Product:  refValue(line.Lookup("product")),
				Quantity: quantityValue(line.Lookup("quantity")),
			}
		})
	}
	return activity
}

// linesValue maps every embedded document of an array through fn.
func linesValue[T any](v bson.RawValue, fn func(bson.Raw) T) []T {
	if v.Type != bsontype.Array {
		return nil
	}
	values, err := v.Array().Values()
	if err != nil {
		return nil
	}
	lines := make([]T, 0, len(values))
	for _, item := range values {
		if item.Type != bsontype.EmbeddedDocument {
			continue
		}
		lines = append(lines, fn(item.Document()))
	}
	return lines
}

