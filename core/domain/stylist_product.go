package domain

import (
	"strings"
	"time"
)

// Gender is the audience a product or a shopper is matched against.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// Opposite returns the gender that conflicts with g, or "" for unisex.
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMen:
		return GenderWomen
	case GenderWomen:
		return GenderMen
	default:
		return ""
	}
}

// IsSpecific reports whether g constrains matching.
func (g Gender) IsSpecific() bool {
	return g == GenderMen || g == GenderWomen
}

// ParseGender maps loose input onto a Gender. Unknown values yield "".
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "men", "man", "male", "mens":
		return GenderMen
	case "women", "woman", "female", "womens":
		return GenderWomen
	case "unisex", "neutral":
		return GenderUnisex
	default:
		return ""
	}
}

// Slot is an outfit role filled by at most one product.
type Slot string

const (
	SlotTop       Slot = "top"
	SlotBottom    Slot = "bottom"
	SlotDress     Slot = "dress"
	SlotFootwear  Slot = "footwear"
	SlotAccessory Slot = "accessory"
	SlotOuterwear Slot = "outerwear"

	// SlotAdditional is accepted from intent sources and planned as footwear.
	SlotAdditional Slot = "additional"
)

// Searchable product fields. Names match the catalog document keys.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldBrand       = "brand"
	FieldTags        = "tags"
	FieldColors      = "colors"
	FieldOccasion    = "occasion"
	FieldStyleType   = "styleType"
	FieldFitType     = "fitType"
	FieldMaterial    = "material"
)

// Product is a catalog item as read from the product store.
type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	DiscountPrice float64   `json:"discountPrice,omitempty"`
	Category      string    `json:"category,omitempty"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Stock         int       `json:"stock"`
	Images        []string  `json:"images"`
	Colors        []string  `json:"colors"`
	Sizes         []string  `json:"sizes,omitempty"`
	Tags          []string  `json:"tags"`
	StyleType     string    `json:"styleType,omitempty"`
	Occasion      []string  `json:"occasion,omitempty"`
	Season        []string  `json:"season,omitempty"`
	FitType       string    `json:"fitType,omitempty"`
	Material      string    `json:"material,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// EffectivePrice is the discount price when one is set, else the list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// PrimaryImage returns the first image or "".
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// FieldValues returns the string values stored under a searchable field.
func (p *Product) FieldValues(field string) []string {
	switch field {
	case FieldName:
		return []string{p.Name}
	case FieldDescription:
		return []string{p.Description}
	case FieldCategory:
		return []string{p.Category}
	case FieldSubcategory:
		return []string{p.Subcategory}
	case FieldBrand:
		return []string{p.Brand}
	case FieldTags:
		return p.Tags
	case FieldColors:
		return p.Colors
	case FieldOccasion:
		return p.Occasion
	case FieldStyleType:
		return []string{p.StyleType}
	case FieldFitType:
		return []string{p.FitType}
	case FieldMaterial:
		return []string{p.Material}
	default:
		return nil
	}
}
