package domain

import "strings"

// ReferenceKind tags the shape a stored product pointer was found in.
type ReferenceKind int

const (
	RefNone ReferenceKind = iota
	RefID
	RefPopulated
	RefSnapshot
	RefList
)

func (k ReferenceKind) String() string {
	switch k {
	case RefNone:
		return "none"
	case RefID:
		return "id"
	case RefPopulated:
		return "populated"
	case RefSnapshot:
		return "snapshot"
	case RefList:
		return "list"
	default:
		return "unknown"
	}
}

// ProductReference is a pointer to a product in any of the shapes historical
// records use: a raw id, a populated product, a partial snapshot, or a list of
// candidates. Exactly one payload field is meaningful for a given Kind.
type ProductReference struct {
	Kind     ReferenceKind
	ID       string
	Product  *Product
	Snapshot *ProductSnapshot
	Items    []ProductReference
}

// ProductSnapshot is a partial product copy embedded in user and order records.
// Identifier fields are references themselves since legacy writers nested
// populated documents under them.
type ProductSnapshot struct {
	ProductID ProductReference // productId
	ObjectID  ProductReference // _id
	LegacyID  ProductReference // id
	Product   ProductReference // product (cart and order line wrapper)
	Inner     *ProductSnapshot // snapshot

	Name          string
	Brand         string
	Category      string
	PrimaryImage  string
	Images        []string
	HasImages     bool
	Colors        []string
	Sizes         []string
	Price         *float64
	DiscountPrice *float64
}

func NoRef() ProductReference { return ProductReference{Kind: RefNone} }

func IDRef(id string) ProductReference { return ProductReference{Kind: RefID, ID: id} }

func PopulatedRef(p *Product) ProductReference {
	if p == nil {
		return NoRef()
	}
	return ProductReference{Kind: RefPopulated, Product: p}
}

func SnapshotRef(s *ProductSnapshot) ProductReference {
	if s == nil {
		return NoRef()
	}
	return ProductReference{Kind: RefSnapshot, Snapshot: s}
}

func ListRef(items ...ProductReference) ProductReference {
	return ProductReference{Kind: RefList, Items: items}
}

var invalidIDStrings = map[string]struct{}{
	"":          {},
	"null":      {},
	"undefined": {},
	"nan":       {},
}

const objectPlaceholder = "[object Object]"

// NormalizeID validates a raw identifier string. It returns "" for empty and
// placeholder values.
func NormalizeID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if _, bad := invalidIDStrings[strings.ToLower(trimmed)]; bad {
		return ""
	}
	if strings.Contains(trimmed, objectPlaceholder) {
		return ""
	}
	return trimmed
}

// Normalize resolves the reference to its canonical product id, or "" when
// nothing usable is present. Normalize(IDRef(r.Normalize())) == r.Normalize().
func (r ProductReference) Normalize() string {
	switch r.Kind {
	case RefNone:
		return ""
	case RefID:
		return NormalizeID(r.ID)
	case RefPopulated:
		if r.Product == nil {
			return ""
		}
		return NormalizeID(r.Product.ID)
	case RefSnapshot:
		if r.Snapshot == nil {
			return ""
		}
		return r.Snapshot.resolveID()
	case RefList:
		for _, item := range r.Items {
			if id := item.Normalize(); id != "" {
				return id
			}
		}
		return ""
	default:
		return ""
	}
}

func (s *ProductSnapshot) resolveID() string {
	for _, candidate := range []ProductReference{s.ProductID, s.ObjectID, s.LegacyID, s.Product} {
		if id := candidate.Normalize(); id != "" {
			return id
		}
	}
	if s.Inner != nil {
		return s.Inner.resolveID()
	}
	return ""
}

// IsPresent reports whether the record carried any value at all.
func (r ProductReference) IsPresent() bool {
	return r.Kind != RefNone
}

// =============================================================================
// Display metadata
// =============================================================================

// ProductMetadata is best-effort display data collected alongside a reference.
type ProductMetadata struct {
	Name          string   `json:"name,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Category      string   `json:"category,omitempty"`
	PrimaryImage  string   `json:"primaryImage,omitempty"`
	Images        []string `json:"images,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
}

// Merge fills fields that are still empty from other. Known fields are never overwritten.
func (m *ProductMetadata) Merge(other *ProductMetadata) {
	if other == nil {
		return
	}
	if m.Name == "" {
		m.Name = other.Name
	}
	if m.Brand == "" {
		m.Brand = other.Brand
	}
	if m.Category == "" {
		m.Category = other.Category
	}
	if m.PrimaryImage == "" {
		m.PrimaryImage = other.PrimaryImage
	}
	if len(m.Images) == 0 && len(other.Images) > 0 {
		m.Images = other.Images
	}
	if m.Price == nil && other.Price != nil {
		m.Price = other.Price
	}
	if m.DiscountPrice == nil && other.DiscountPrice != nil {
		m.DiscountPrice = other.DiscountPrice
	}
}

// Metadata extracts display data from the reference, or nil for bare ids.
func (r ProductReference) Metadata() *ProductMetadata {
	switch r.Kind {
	case RefPopulated:
		if r.Product == nil {
			return nil
		}
		p := r.Product
		price, discount := p.Price, p.DiscountPrice
		return &ProductMetadata{
			Name:          p.Name,
			Brand:         p.Brand,
			Category:      p.Category,
			PrimaryImage:  p.PrimaryImage(),
			Images:        p.Images,
			Price:         &price,
			DiscountPrice: &discount,
		}
	case RefSnapshot:
		if r.Snapshot == nil {
			return nil
		}
		return r.Snapshot.metadata()
	case RefList:
		for _, item := range r.Items {
			if md := item.Metadata(); md != nil {
				return md
			}
		}
		return nil
	default:
		return nil
	}
}

// metadata prefers the nested snapshot and falls back to the outer fields.
func (s *ProductSnapshot) metadata() *ProductMetadata {
	base := s
	if s.Inner != nil {
		base = s.Inner
	}
	md := &ProductMetadata{
		Name:          firstNonEmpty(base.Name, s.Name),
		Brand:         firstNonEmpty(base.Brand, s.Brand),
		Category:      firstNonEmpty(base.Category, s.Category),
		Price:         firstPrice(base.Price, s.Price),
		DiscountPrice: firstPrice(base.DiscountPrice, s.DiscountPrice),
	}
	if len(base.Images) > 0 {
		md.Images = base.Images
	} else {
		md.Images = s.Images
	}
	md.PrimaryImage = firstNonEmpty(base.PrimaryImage, s.PrimaryImage)
	if md.PrimaryImage == "" && len(md.Images) > 0 {
		md.PrimaryImage = md.Images[0]
	}
	return md
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPrice(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// =============================================================================
// Canonical storage shape
// =============================================================================

// SuggestionProduct is the canonical snapshot stored inside cached outfits.
// ProductID, ID and LegacyID always hold the same value.
type SuggestionProduct struct {
	ProductID     string   `json:"productId"`
	ID            string   `json:"_id"`
	LegacyID      string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         *float64 `json:"price"`
	DiscountPrice *float64 `json:"discountPrice"`
	Images        []string `json:"images"`
	PrimaryImage  string   `json:"primaryImage,omitempty"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
}

// Reference wraps the canonical product back into a snapshot reference.
func (sp *SuggestionProduct) Reference() ProductReference {
	if sp == nil {
		return NoRef()
	}
	price, discount := sp.Price, sp.DiscountPrice
	return SnapshotRef(&ProductSnapshot{
		ProductID:     IDRef(sp.ProductID),
		ObjectID:      IDRef(sp.ID),
		LegacyID:      IDRef(sp.LegacyID),
		Name:          sp.Name,
		Brand:         sp.Brand,
		Category:      sp.Category,
		PrimaryImage:  sp.PrimaryImage,
		Images:        sp.Images,
		HasImages:     sp.Images != nil,
		Colors:        sp.Colors,
		Sizes:         sp.Sizes,
		Price:         price,
		DiscountPrice: discount,
	})
}

// NewSuggestionProduct builds the canonical snapshot of a catalog product.
func NewSuggestionProduct(p *Product) *SuggestionProduct {
	if p == nil {
		return nil
	}
	sp, _ := Sanitize(PopulatedRef(p))
	return sp
}

// isCanonical reports whether the snapshot already has the stored shape.
func (s *ProductSnapshot) isCanonical() bool {
	if s.ProductID.Kind != RefID || s.ObjectID.Kind != RefID || s.LegacyID.Kind != RefID {
		return false
	}
	id := s.ProductID.ID
	return id != "" && NormalizeID(id) == id && s.ObjectID.ID == id && s.LegacyID.ID == id && s.HasImages
}

// Sanitize converts any reference into the canonical stored shape. changed
// reports whether the stored value needs rewriting. A missing value is not a
// change; an unresolvable one is.
func Sanitize(ref ProductReference) (*SuggestionProduct, bool) {
	if !ref.IsPresent() {
		return nil, false
	}

	if ref.Kind == RefSnapshot && ref.Snapshot != nil && ref.Snapshot.isCanonical() {
		s := ref.Snapshot
		sp := &SuggestionProduct{
			ProductID:     s.ProductID.ID,
			ID:            s.ProductID.ID,
			LegacyID:      s.ProductID.ID,
			Name:          s.Name,
			Brand:         s.Brand,
			Category:      s.Category,
			Price:         s.Price,
			DiscountPrice: s.DiscountPrice,
			Images:        s.Images,
			PrimaryImage:  s.PrimaryImage,
			Colors:        nonNil(s.Colors),
			Sizes:         nonNil(s.Sizes),
		}
		if sp.Images == nil {
			sp.Images = []string{}
		}
		if sp.PrimaryImage == "" && len(sp.Images) > 0 {
			sp.PrimaryImage = sp.Images[0]
			return sp, true
		}
		return sp, false
	}

	id := ref.Normalize()
	if id == "" {
		return nil, true
	}

	sp := &SuggestionProduct{ProductID: id, ID: id, LegacyID: id}
	if md := ref.Metadata(); md != nil {
		sp.Name = md.Name
		sp.Brand = md.Brand
		sp.Category = md.Category
		sp.Price = md.Price
		sp.DiscountPrice = md.DiscountPrice
		sp.Images = md.Images
		sp.PrimaryImage = md.PrimaryImage
	}
	sp.Colors, sp.Sizes = referenceAttributes(ref)

	if len(sp.Images) == 0 && sp.PrimaryImage != "" {
		sp.Images = []string{sp.PrimaryImage}
	}
	if sp.Images == nil {
		sp.Images = []string{}
	}
	if sp.PrimaryImage == "" && len(sp.Images) > 0 {
		sp.PrimaryImage = sp.Images[0]
	}
	return sp, true
}

func referenceAttributes(ref ProductReference) (colors, sizes []string) {
	switch ref.Kind {
	case RefPopulated:
		if ref.Product != nil {
			return nonNil(ref.Product.Colors), nonNil(ref.Product.Sizes)
		}
	case RefSnapshot:
		if s := ref.Snapshot; s != nil {
			base := s
			if s.Inner != nil {
				base = s.Inner
			}
			colors, sizes = base.Colors, base.Sizes
			if colors == nil {
				colors = s.Colors
			}
			if sizes == nil {
				sizes = s.Sizes
			}
			return nonNil(colors), nonNil(sizes)
		}
	case RefList:
		for _, item := range ref.Items {
			if item.Normalize() != "" {
				return referenceAttributes(item)
			}
		}
	}
	return []string{}, []string{}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
