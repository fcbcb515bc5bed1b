package domain

import "time"

// =============================================================================
// Chat outfit
// =============================================================================

// PlanEntry is one slot the matcher must try to fill.
type PlanEntry struct {
	SlotID     Slot   `json:"slotId"`
	Label      string `json:"label"`
	SearchType Slot   `json:"searchType"`
}

// SlotPlan is ordered, deduplicated and holds at most MaxPlanSlots entries.
type SlotPlan []PlanEntry

const MaxPlanSlots = 4

// Has reports whether the plan contains slot.
func (p SlotPlan) Has(slot Slot) bool {
	return p.Index(slot) >= 0
}

// Index returns the position of slot in the plan or -1.
func (p SlotPlan) Index(slot Slot) int {
	for i, e := range p {
		if e.SlotID == slot {
			return i
		}
	}
	return -1
}

// Selection is a product resolved for one slot.
type Selection struct {
	SlotID     Slot
	Label      string
	SearchType Slot
	Product    *Product
	Reasons    []string
}

// RecommendedProduct is the full per-slot payload returned to chat clients.
type RecommendedProduct struct {
	Slot          Slot     `json:"slot"`
	Label         string   `json:"label"`
	SearchType    Slot     `json:"searchType"`
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice float64  `json:"discountPrice,omitempty"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Images        []string `json:"images"`
	Colors        []string `json:"colors"`
	Tags          []string `json:"tags"`
	Stock         int      `json:"stock"`
	Rating        float64  `json:"rating"`
	Link          string   `json:"link"`
	MatchReasons  []string `json:"matchReasons"`
}

// SimpleProduct is the reduced product card used by lightweight clients.
type SimpleProduct struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice float64  `json:"discountPrice,omitempty"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Images        []string `json:"images"`
	Rating        float64  `json:"rating"`
	Stock         int      `json:"stock"`
}

// CostItem is one priced line of an outfit.
type CostItem struct {
	Slot                Slot    `json:"slot"`
	Label               string  `json:"label"`
	Name                string  `json:"name"`
	Price               float64 `json:"price"`
	DiscountPrice       float64 `json:"discountPrice,omitempty"`
	FinalPrice          float64 `json:"finalPrice"`
	Link                string  `json:"link"`
	FormattedFinalPrice string  `json:"formattedFinalPrice"`
}

// CostBreakdown totals an outfit in the store currency.
type CostBreakdown struct {
	Currency       string     `json:"currency"`
	Items          []CostItem `json:"items"`
	Total          float64    `json:"total"`
	FormattedTotal string     `json:"formattedTotal"`
}

// ChatResponse is what a chat request returns, including the no-match case.
type ChatResponse struct {
	Message             string               `json:"message"`
	Products            []SimpleProduct      `json:"products"`
	RecommendedProducts []RecommendedProduct `json:"recommendedProducts"`
	CostBreakdown       *CostBreakdown       `json:"costBreakdown"`
	Intent              ShoppingIntent       `json:"intent"`
}

// =============================================================================
// Personalized outfit
// =============================================================================

// StoredOutfit is a cached outfit exactly as persisted, legacy shapes included.
type StoredOutfit struct {
	Top       ProductReference
	Bottom    ProductReference
	Accessory ProductReference
}

// PersonalizedOutfit is a normalized top/bottom/accessory bundle. Accessory may be nil.
type PersonalizedOutfit struct {
	Top       *SuggestionProduct `json:"top"`
	Bottom    *SuggestionProduct `json:"bottom"`
	Accessory *SuggestionProduct `json:"accessory"`
}

// Stored converts the outfit into its persisted form.
func (o PersonalizedOutfit) Stored() StoredOutfit {
	return StoredOutfit{
		Top:       o.Top.Reference(),
		Bottom:    o.Bottom.Reference(),
		Accessory: o.Accessory.Reference(),
	}
}

// NormalizeOutfits upgrades stored outfits to the canonical shape. Outfits
// without a resolvable top or bottom are dropped. changed reports whether the
// result differs from what is stored.
func NormalizeOutfits(stored []StoredOutfit) ([]PersonalizedOutfit, bool) {
	normalized := make([]PersonalizedOutfit, 0, len(stored))
	changed := false

	for _, so := range stored {
		top, topChanged := Sanitize(so.Top)
		bottom, bottomChanged := Sanitize(so.Bottom)
		accessory, accessoryChanged := Sanitize(so.Accessory)

		if top == nil || bottom == nil {
			changed = true
			continue
		}
		normalized = append(normalized, PersonalizedOutfit{Top: top, Bottom: bottom, Accessory: accessory})
		if topChanged || bottomChanged || accessoryChanged {
			changed = true
		}
	}

	return normalized, changed
}

// CachedStyleSuggestion is the sticky per-user recommendation.
type CachedStyleSuggestion struct {
	Gender      Gender
	Outfits     []StoredOutfit
	LastUpdated time.Time
}

// UserProfile is the slice of a user record the stylist reads.
type UserProfile struct {
	ID               string
	Name             string
	StyleSuggestions *CachedStyleSuggestion
}

// StyleSuggestionResult is returned by the sticky and refresh flows.
type StyleSuggestionResult struct {
	Gender      Gender               `json:"gender"`
	Outfits     []PersonalizedOutfit `json:"outfits"`
	LastUpdated time.Time            `json:"lastUpdated"`
	Cached      bool                 `json:"cached"`
}

// StyleTip is a pair of styling lines for one product.
type StyleTip struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
}

const (
	TipSourceAI       = "ai"
	TipSourceFallback = "fallback"
)

// =============================================================================
// Complements
// =============================================================================

// DetectedItem is a garment recognized in a worn outfit.
type DetectedItem struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// ComplementRequest carries either detected garments or a free-text caption.
type ComplementRequest struct {
	Items   []DetectedItem `json:"items"`
	Caption string         `json:"caption"`
}

// ComplementProduct is a catalog product suggested to go with detected items.
type ComplementProduct struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice float64  `json:"discountPrice,omitempty"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Image         string   `json:"image,omitempty"`
	Images        []string `json:"images"`
	Colors        []string `json:"colors"`
	Tags          []string `json:"tags"`
	Stock         int      `json:"stock"`
	Link          string   `json:"link"`
	MatchReasons  []string `json:"matchReasons"`
}

// ComplementResult is the stylist commentary plus the products it may cite.
type ComplementResult struct {
	Analysis            []DetectedItem      `json:"analysis"`
	Message             string              `json:"message"`
	RecommendedProducts []ComplementProduct `json:"recommendedProducts"`
}
