package analytics

import (
	"sort"

	"shoppulse/internal/orders"
)

// GeoCounts tallies how often each value of the chosen dimension (city or
// state) occurs across the table's rows and returns the first limit
// locations sorted descending by count. A limit <= 0 falls back to
// DefaultLimit.
//
// These are row counts, not distinct-customer counts: a customer with
// three rows in one city contributes three. The source dashboard labels
// the column "customer_count" but counts value occurrences, and that
// behavior is preserved here. Equal counts keep first-appearance order.
func GeoCounts(table orders.Table, dimension Dimension, limit int) []GeoCount {
	if limit <= 0 {
		limit = DefaultLimit
	}

	counts := make(map[string]int)
	var keys []string
	for _, order := range table {
		location := order.CustomerCity
		if dimension == State {
			location = order.CustomerState
		}
		if _, ok := counts[location]; !ok {
			keys = append(keys, location)
		}
		counts[location]++
	}

	tallies := make([]GeoCount, 0, len(keys))
	for _, key := range keys {
		tallies = append(tallies, GeoCount{Location: key, Count: counts[key]})
	}

	sort.SliceStable(tallies, func(i, j int) bool {
		return tallies[i].Count > tallies[j].Count
	})

	if len(tallies) > limit {
		tallies = tallies[:limit]
	}

	return tallies
}
