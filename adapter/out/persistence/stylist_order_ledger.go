package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// OrderLedger implements out.OrderRepository over a Postgres order_items table.
// Product references are stored as jsonb in whatever shape the writer used.
type OrderLedger struct {
	db *sqlx.DB
}

func NewOrderLedger(db *sqlx.DB) *OrderLedger {
	return &OrderLedger{db: db}
}

var _ out.OrderRepository = (*OrderLedger)(nil)

const orderItemsSchema = `
	CREATE TABLE IF NOT EXISTS order_items (
		id          BIGSERIAL PRIMARY KEY,
		order_id    TEXT NOT NULL,
		product_ref JSONB,
		quantity    NUMERIC,
		price       NUMERIC,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// EnsureSchema creates the ledger table when it does not exist.
func (l *OrderLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, orderItemsSchema); err != nil {
		return fmt.Errorf("failed to create order_items: %w", err)
	}
	return nil
}

// orderItemRow represents the database row
type orderItemRow struct {
	ProductRef []byte          `db:"product_ref"` // JSONB
	Quantity   sql.NullFloat64 `db:"quantity"`
	Price      sql.NullFloat64 `db:"price"`
}

func (l *OrderLedger) ScanOrderLines(ctx context.Context, fn func(*domain.OrderLine) error) error {
	query := `SELECT product_ref, quantity, price FROM order_items ORDER BY id`

	rows, err := l.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to scan order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row orderItemRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("failed to read order item: %w", err)
		}
		line := rowToLine(&row)
		if err := fn(&line); err != nil {
			return err
		}
	}
	return rows.Err()
}

// rowToLine converts a row; NULL numbers become NaN so the aggregator applies its defaults.
func rowToLine(row *orderItemRow) domain.OrderLine {
	line := domain.OrderLine{
		Product:  DecodeReference(row.ProductRef),
		Quantity: math.NaN(),
		Price:    math.NaN(),
	}
	if row.Quantity.Valid {
		line.Quantity = row.Quantity.Float64
	}
	if row.Price.Valid {
		line.Price = row.Price.Float64
	}
	return line
}

// =============================================================================
// JSON reference codec
// =============================================================================

var snapshotKeys = []string{"productId", "product", "snapshot", "id"}

// DecodeReference reads a JSON-encoded product reference in any historical
// shape. Malformed input yields RefNone.
func DecodeReference(data []byte) domain.ProductReference {
	if len(data) == 0 {
		return domain.NoRef()
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return domain.NoRef()
	}
	return referenceValue(value)
}

func referenceValue(value interface{}) domain.ProductReference {
	switch v := value.(type) {
	case nil:
		return domain.NoRef()
	case string:
		return domain.IDRef(v)
	case float64:
		return domain.IDRef(strconv.FormatFloat(v, 'f', -1, 64))
	case []interface{}:
		items := make([]domain.ProductReference, 0, len(v))
		for _, item := range v {
			items = append(items, referenceValue(item))
		}
		return domain.ListRef(items...)
	case map[string]interface{}:
		if p, ok := populatedValue(v); ok {
			return domain.PopulatedRef(p)
		}
		return domain.SnapshotRef(snapshotValue(v))
	default:
		return domain.NoRef()
	}
}

// populatedValue accepts objects that look like a full product document.
func populatedValue(v map[string]interface{}) (*domain.Product, bool) {
	for _, key := range snapshotKeys {
		if _, ok := v[key]; ok {
			return nil, false
		}
	}
	id, ok := v["_id"].(string)
	if !ok || id == "" {
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func snapshotValue(v map[string]interface{}) *domain.ProductSnapshot {
	s := &domain.ProductSnapshot{
		ProductID:     referenceValue(v["productId"]),
		ObjectID:      referenceValue(v["_id"]),
		LegacyID:      referenceValue(v["id"]),
		Product:       referenceValue(v["product"]),
		Name:          stringValue(v["name"]),
		Brand:         stringValue(v["brand"]),
		Category:      stringValue(v["category"]),
		PrimaryImage:  stringValue(v["primaryImage"]),
		Price:         numberValue(v["price"]),
		DiscountPrice: numberValue(v["discountPrice"]),
		Colors:        stringsValue(v["colors"]),
		Sizes:         stringsValue(v["sizes"]),
	}
	if images, ok := v["images"].([]interface{}); ok {
		s.Images = stringsValue(images)
		s.HasImages = true
	}
	if inner, ok := v["snapshot"].(map[string]interface{}); ok {
		s.Inner = snapshotValue(inner)
	}
	return s
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringsValue(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func numberValue(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return &f
		}
	}
	return nil
}
