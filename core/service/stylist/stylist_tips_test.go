package stylist

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"stylist_server/adapter/out/memory"
	"stylist_server/core/domain"
	"stylist_server/pkg/apperr"
)

func TestParseSuggestionLines(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"line prefixes", "Line 1: Pair with white sneakers.\nLine 2: Add a denim jacket.", []string{"Pair with white sneakers.", "Add a denim jacket."}},
		{"bullets and blank lines", "- Roll the sleeves.\r\n\r\n• Tuck it in.\nExtra line.", []string{"Roll the sleeves.", "Tuck it in."}},
		{"sentence split", "Wear it with loafers. Finish with a watch!", []string{"Wear it with loafers.", "Finish with a watch!"}},
		{"single line", "Line 1 - Keep it simple", []string{"Keep it simple"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSuggestionLines(tt.raw)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFallbackTips(t *testing.T) {
	tests := []struct {
		name     string
		product  *domain.Product
		expected []string
	}{
		{
			name:    "full product",
			product: &domain.Product{Name: "Linen Shirt", Category: "Shirts", Colors: []string{"Sky Blue"}, Material: "Linen"},
			expected: []string{
				"Let Linen Shirt stand out by pairing it with sky blue accents that highlight its linen texture.",
				"Complete the look with tailored bottoms and polished footwear for a balanced, confident silhouette.",
			},
		},
		{
			name:    "bare product",
			product: &domain.Product{},
			expected: []string{
				"Let this piece stand out by pairing it with soft neutrals that highlight its clean lines.",
				"Complete the look with minimal accessories to keep the look refined for a balanced, confident silhouette.",
			},
		},
		{
			name:    "dress",
			product: &domain.Product{Name: "Wrap Dress", Category: "Dresses"},
			expected: []string{
				"Let Wrap Dress stand out by pairing it with soft neutrals that highlight its clean lines.",
				"Complete the look with layered jewelry and strappy heels for a balanced, confident silhouette.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackTips(tt.product)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestProductStyleTip(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
		source    string
		first     string
	}{
		{"completer lines", &fakeCompleter{reply: "Line 1: Pair with white sneakers.\nLine 2: Add a denim jacket."}, domain.TipSourceAI, "Pair with white sneakers."},
		{"single line reply", &fakeCompleter{reply: "Looks great"}, domain.TipSourceFallback, "Let Floral Blouse stand out by pairing it with pink accents that highlight its clean lines."},
		{"completer failure", &fakeCompleter{err: errors.New("rate limited")}, domain.TipSourceFallback, "Let Floral Blouse stand out by pairing it with pink accents that highlight its clean lines."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(fixtureProducts(), memory.NewUsers(), tt.completer, nil)

			tip, err := svc.ProductStyleTip(context.Background(), "wt1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tip.Source != tt.source {
				t.Errorf("expected source %q, got %q", tt.source, tip.Source)
			}
			if len(tip.Suggestions) != 2 || tip.Suggestions[0] != tt.first {
				t.Errorf("expected first line %q, got %q", tt.first, tip.Suggestions)
			}
			if tip.ProductID != "wt1" || tip.ProductName != "Floral Blouse" {
				t.Errorf("unexpected product %s %s", tip.ProductID, tip.ProductName)
			}
		})
	}
}

func TestProductStyleTipErrors(t *testing.T) {
	svc := newTestService(fixtureProducts(), memory.NewUsers(), nil, nil)

	if _, err := svc.ProductStyleTip(context.Background(), "missing"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.ProductStyleTip(context.Background(), " "); !apperr.Is(err, apperr.CodeBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}

	tip, err := svc.ProductStyleTip(context.Background(), "mt1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip.Source != domain.TipSourceFallback {
		t.Errorf("expected fallback without a completer, got %q", tip.Source)
	}
}
