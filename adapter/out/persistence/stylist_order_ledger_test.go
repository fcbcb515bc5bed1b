package persistence

import (
	"database/sql"
	"math"
	"testing"

	"stylist_server/core/domain"
)

func TestDecodeReference(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   domain.ReferenceKind
		wantID string
	}{
		{"empty", ``, domain.RefNone, ""},
		{"malformed", `{"_id":`, domain.RefNone, ""},
		{"null", `null`, domain.RefNone, ""},
		{"string id", `"65a1f0c2e4b0a1b2c3d4e5f6"`, domain.RefID, "65a1f0c2e4b0a1b2c3d4e5f6"},
		{"placeholder", `"[object Object]"`, domain.RefID, ""},
		{"number", `42`, domain.RefID, "42"},
		{"populated", `{"_id":"p1","name":"Linen Shirt","price":1200}`, domain.RefPopulated, "p1"},
		{"snapshot", `{"productId":"p2","name":"Chinos"}`, domain.RefSnapshot, "p2"},
		{"wrapped product", `{"product":{"_id":"p3","name":"Belt"},"quantity":1}`, domain.RefSnapshot, "p3"},
		{"nested snapshot", `{"snapshot":{"id":"p4"}}`, domain.RefSnapshot, "p4"},
		{"list", `[null, "", "p5"]`, domain.RefList, "p5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := DecodeReference([]byte(tt.input))
			if ref.Kind != tt.kind {
				t.Fatalf("expected kind %v, got %v", tt.kind, ref.Kind)
			}
			if got := ref.Normalize(); got != tt.wantID {
				t.Errorf("expected %q, got %q", tt.wantID, got)
			}
		})
	}
}

func TestDecodeReferenceSnapshotFields(t *testing.T) {
	ref := DecodeReference([]byte(`{"productId":"p1","name":"Chinos","price":"1499","discountPrice":999,"images":[],"colors":["khaki",3]}`))
	s := ref.Snapshot
	if s == nil {
		t.Fatal("expected a snapshot")
	}
	if s.Price == nil || *s.Price != 1499 {
		t.Errorf("expected price 1499, got %v", s.Price)
	}
	if s.DiscountPrice == nil || *s.DiscountPrice != 999 {
		t.Errorf("expected discount 999, got %v", s.DiscountPrice)
	}
	if !s.HasImages || len(s.Images) != 0 {
		t.Errorf("expected an empty images list, got %v (has=%v)", s.Images, s.HasImages)
	}
	if len(s.Colors) != 1 || s.Colors[0] != "khaki" {
		t.Errorf("expected [khaki], got %v", s.Colors)
	}
}

func TestRowToLine(t *testing.T) {
	line := rowToLine(&orderItemRow{
		ProductRef: []byte(`"p1"`),
		Quantity:   sql.NullFloat64{Float64: 2, Valid: true},
	})
	if line.Product.Normalize() != "p1" {
		t.Errorf("expected p1, got %q", line.Product.Normalize())
	}
	if line.Quantity != 2 {
		t.Errorf("expected quantity 2, got %v", line.Quantity)
	}
	if !math.IsNaN(line.Price) {
		t.Errorf("expected NaN price for NULL, got %v", line.Price)
	}
}
