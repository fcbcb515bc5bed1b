package mongodb

import (
	"context"
	"fmt"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogAdapter implements out.CatalogRepository over the products collection.
type CatalogAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewCatalogAdapter(db *mongo.Database) *CatalogAdapter {
	return &CatalogAdapter{
		db:         db,
		collection: db.Collection(collectionProducts),
	}
}

var _ out.CatalogRepository = (*CatalogAdapter)(nil)

// productDocument - MongoDB 상품 문서
type productDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description,omitempty"`
	Price         float64            `bson:"price"`
	DiscountPrice float64            `bson:"discountPrice,omitempty"`
	Category      string             `bson:"category,omitempty"`
	Subcategory   string             `bson:"subcategory,omitempty"`
	Brand         string             `bson:"brand,omitempty"`
	Stock         int                `bson:"stock"`
	Images        []string           `bson:"images,omitempty"`
	Colors        []string           `bson:"colors,omitempty"`
	Sizes         []string           `bson:"sizes,omitempty"`
	Tags          []string           `bson:"tags,omitempty"`
	StyleType     string             `bson:"styleType,omitempty"`
	Occasion      []string           `bson:"occasion,omitempty"`
	Season        []string           `bson:"season,omitempty"`
	FitType       string             `bson:"fitType,omitempty"`
	Material      string             `bson:"material,omitempty"`
	Rating        float64            `bson:"rating"`
	ReviewCount   int                `bson:"reviewCount,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt,omitempty"`
}

func (d *productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Category:      d.Category,
		Subcategory:   d.Subcategory,
		Brand:         d.Brand,
		Stock:         d.Stock,
		Images:        d.Images,
		Colors:        d.Colors,
		Sizes:         d.Sizes,
		Tags:          d.Tags,
		StyleType:     d.StyleType,
		Occasion:      d.Occasion,
		Season:        d.Season,
		FitType:       d.FitType,
		Material:      d.Material,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		CreatedAt:     d.CreatedAt,
	}
}

// =============================================================================
// Indexes
// =============================================================================

func (a *CatalogAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "stock", Value: 1}}},
		{Keys: bson.D{{Key: "subcategory", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "discountPrice", Value: 1}, {Key: "price", Value: 1}}},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// =============================================================================
// Queries
// =============================================================================

func (a *CatalogAdapter) FindOne(ctx context.Context, q out.ProductQuery) (*domain.Product, error) {
	opts := options.FindOne()
	if sort := sortSpec(q.Sort); sort != nil {
		opts.SetSort(sort)
	}

	var doc productDocument
	err := a.collection.FindOne(ctx, buildFilter(q), opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return doc.toDomain(), nil
}

func (a *CatalogAdapter) Find(ctx context.Context, q out.ProductQuery) ([]*domain.Product, error) {
	opts := options.Find()
	if sort := sortSpec(q.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := a.collection.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, len(docs))
	for i := range docs {
		products[i] = docs[i].toDomain()
	}
	return products, nil
}

func (a *CatalogAdapter) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(domain.NormalizeID(id))
	if err != nil {
		return nil, nil
	}

	var doc productDocument
	err = a.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByIDs returns the products that exist, in the order of ids.
func (a *CatalogAdapter) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Product{}, nil
	}

	cursor, err := a.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by id: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]*domain.Product, len(oids))
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		byID[doc.ID.Hex()] = doc.toDomain()
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	products := make([]*domain.Product, 0, len(byID))
	for _, oid := range oids {
		if p, ok := byID[oid.Hex()]; ok {
			products = append(products, p)
			delete(byID, oid.Hex())
		}
	}
	return products, nil
}

// =============================================================================
// Filter translation
// =============================================================================

// buildFilter translates a store-neutral query into a MongoDB filter.
func buildFilter(q out.ProductQuery) bson.D {
	filter := bson.D{}

	if q.InStock {
		filter = append(filter, bson.E{Key: "stock", Value: bson.M{"$gt": 0}})
	}
	if len(q.ExcludeIDs) > 0 {
		filter = append(filter, bson.E{Key: "_id", Value: bson.M{"$nin": objectIDs(q.ExcludeIDs)}})
	}

	if all := textClauses(q.All); len(all) > 0 {
		filter = append(filter, bson.E{Key: "$and", Value: all})
	}
	if none := textClauses(q.None); len(none) > 0 {
		filter = append(filter, bson.E{Key: "$nor", Value: none})
	}
	return filter
}

func textClauses(matches []out.TextMatch) bson.A {
	clauses := bson.A{}
	for _, m := range matches {
		if m.IsEmpty() {
			continue
		}
		clauses = append(clauses, textMatchFilter(m))
	}
	return clauses
}

// textMatchFilter expands a clause into an $or over every field and pattern.
func textMatchFilter(m out.TextMatch) bson.M {
	or := bson.A{}
	for _, field := range m.Fields {
		for _, pattern := range m.Patterns {
			or = append(or, bson.M{field: primitive.Regex{Pattern: pattern, Options: "i"}})
		}
	}
	return bson.M{"$or": or}
}

func sortSpec(s out.ProductSort) bson.D {
	switch s {
	case out.SortBestPrice:
		return bson.D{{Key: "discountPrice", Value: 1}, {Key: "price", Value: 1}, {Key: "rating", Value: -1}}
	case out.SortTopRated:
		return bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return nil
	}
}
