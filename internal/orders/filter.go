package orders

import (
	"time"
)

// FilterByRange returns the sub-table whose purchase timestamps fall
// within the inclusive [start, end] window. Comparison is by calendar
// date: any time-of-day component on the boundary dates is included in
// full. Returns ErrInvalidRange when start is after end.
//
// An empty result is valid; every aggregation is total over an empty
// table. Filtering an already-filtered table by the same range returns
// an identical table.
func FilterByRange(table Table, start, end time.Time) (Table, error) {
	startDay := DateOf(start)
	endDay := DateOf(end)

	if startDay.After(endDay) {
		return nil, ErrInvalidRange
	}

	filtered := make(Table, 0, len(table))
	for _, order := range table {
		day := DateOf(order.PurchasedAt)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		filtered = append(filtered, order)
	}

	return filtered, nil
}
