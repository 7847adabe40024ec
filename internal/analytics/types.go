package analytics

import (
	"time"
)

// DefaultLimit is the row cap applied to ranked outputs when the caller
// does not choose one.
const DefaultLimit = 10

// Direction selects the sort order for category rankings
type Direction string

const (
	// Top ranks best-selling categories first
	Top Direction = "top"
	// Bottom ranks least-selling categories first
	Bottom Direction = "bottom"
)

// Dimension selects the grouping column for geographic tallies
type Dimension string

const (
	// City groups by customer city
	City Dimension = "city"
	// State groups by customer state
	State Dimension = "state"
)

// DailyMetric is one calendar day's order volume and revenue. Days inside
// the table's span with no orders appear with zero values.
type DailyMetric struct {
	Date       time.Time `json:"date"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

// CategoryRank is a product category with its distinct-order count
type CategoryRank struct {
	Category   string `json:"category"`
	OrderCount int    `json:"order_count"`
}

// GeoCount is a location (city or state) with its row-occurrence count.
// The count tallies rows, not distinct customers, mirroring the source
// dashboard's behavior.
type GeoCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// RFMEntry holds one customer's recency, frequency, and monetary scores
type RFMEntry struct {
	CustomerID string  `json:"customer_unique_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// RatingCount is one review-score label with its occurrence count,
// ordered by the numeric score
type RatingCount struct {
	Score int    `json:"score"`
	Label string `json:"label"`
	Count int    `json:"count"`
}
