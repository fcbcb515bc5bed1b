package domain

import "time"

// UserActivity is what the metrics scan reads from one user record.
type UserActivity struct {
	UserID   string
	Outfits  []StoredOutfit
	Wishlist []ProductReference
	Cart     []CartLine
}

// CartLine is one cart entry. Quantity is as stored and may be invalid.
type CartLine struct {
	Product  ProductReference
	Quantity float64
}

// OrderLine is one purchased line item. Quantity and Price are as stored.
type OrderLine struct {
	Product  ProductReference
	Quantity float64
	Price    float64
}

// ProductMetric is one leaderboard row.
type ProductMetric struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	Category     string  `json:"category,omitempty"`
	PrimaryImage string  `json:"primaryImage,omitempty"`
	Impressions  int64   `json:"impressions"`
	Clicks       float64 `json:"clicks"`
	Conversions  float64 `json:"conversions"`
	CTR          float64 `json:"ctr"`
	CVR          float64 `json:"cvr"`
	Revenue      float64 `json:"revenue"`
}

// MetricsSummary aggregates all products.
type MetricsSummary struct {
	TotalImpressions int64   `json:"totalImpressions"`
	TotalClicks      float64 `json:"totalClicks"`
	TotalConversions float64 `json:"totalConversions"`
	TotalRevenue     float64 `json:"totalRevenue"`
	AvgCTR           float64 `json:"avgCtr"`
	AvgCVR           float64 `json:"avgCvr"`
}

// RecommendationMetrics is the funnel view. Degraded results carry zeros and warnings.
type RecommendationMetrics struct {
	Summary   MetricsSummary  `json:"summary"`
	Products  []ProductMetric `json:"products"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Degraded  bool            `json:"degraded"`
	Warnings  []string        `json:"warnings"`
}

// Rate returns num/den*100, or 0 when den is 0.
func Rate(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}
