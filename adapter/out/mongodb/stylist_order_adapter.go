package mongodb

import (
	"context"
	"fmt"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderAdapter implements out.OrderRepository over the orders collection.
type OrderAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewOrderAdapter(db *mongo.Database) *OrderAdapter {
	return &OrderAdapter{
		db:         db,
		collection: db.Collection(collectionOrders),
	}
}

var _ out.OrderRepository = (*OrderAdapter)(nil)

func (a *OrderAdapter) ScanOrderLines(ctx context.Context, fn func(*domain.OrderLine) error) error {
	opts := options.Find().SetProjection(bson.M{"products": 1})
	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to scan orders: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		for _, line := range orderLinesValue(cursor.Current) {
			if err := fn(&line); err != nil {
				return err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate orders: %w", err)
	}
	return nil
}

func orderLinesValue(doc bson.Raw) []domain.OrderLine {
	return linesValue(doc.Lookup("products"), func(line bson.Raw) domain.OrderLine {
		return domain.OrderLine{
			Product:  refValue(line.Lookup("product")),
			Quantity: quantityValue(line.Lookup("quantity")),
			Price:    quantityValue(line.Lookup("price")),
		}
	})
}
