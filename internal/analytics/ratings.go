package analytics

import (
	"shoppulse/internal/orders"
)

// ratingLabels maps each valid review score to its display label
var ratingLabels = map[int]string{
	1: "Very Poor(1)",
	2: "Poor(2)",
	3: "Average(3)",
	4: "Good(4)",
	5: "Very Good(5)",
}

// RatingTally counts review scores per label, ordered by the numeric
// score ascending rather than by count. Rows with a null score or one
// outside 1..5 are dropped silently; the mapping simply yields no match.
// Labels that never occur are omitted.
func RatingTally(table orders.Table) []RatingCount {
	counts := make(map[int]int)
	for _, order := range table {
		if order.ReviewScore == nil {
			continue
		}
		score := *order.ReviewScore
		if _, ok := ratingLabels[score]; !ok {
			continue
		}
		counts[score]++
	}

	tally := make([]RatingCount, 0, len(counts))
	for score := 1; score <= 5; score++ {
		if count, ok := counts[score]; ok {
			tally = append(tally, RatingCount{Score: score, Label: ratingLabels[score], Count: count})
		}
	}

	return tally
}
