package analytics

import (
	"sort"

	"shoppulse/internal/orders"
)

// CategoryRanks groups the table by product category, counts distinct
// orders per category, and returns the first limit categories after
// sorting by that count in the requested direction. A limit <= 0 falls
// back to DefaultLimit.
//
// A missing category is a valid group key, not a dropped row. The sort is
// stable: categories with equal counts keep the order in which they first
// appeared in the timestamp-sorted input, which decides who survives the
// truncation boundary.
func CategoryRanks(table orders.Table, direction Direction, limit int) []CategoryRank {
	if limit <= 0 {
		limit = DefaultLimit
	}

	groups := make(map[string]map[string]struct{})
	var keys []string
	for _, order := range table {
		g, ok := groups[order.ProductCategory]
		if !ok {
			g = make(map[string]struct{})
			groups[order.ProductCategory] = g
			keys = append(keys, order.ProductCategory)
		}
		g[order.OrderID] = struct{}{}
	}

	// keys is already in first-appearance order; the stable sort keeps
	// that order among equal counts.
	ranks := make([]CategoryRank, 0, len(keys))
	for _, key := range keys {
		ranks = append(ranks, CategoryRank{Category: key, OrderCount: len(groups[key])})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if direction == Bottom {
			return ranks[i].OrderCount < ranks[j].OrderCount
		}
		return ranks[i].OrderCount > ranks[j].OrderCount
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}

	return ranks
}
