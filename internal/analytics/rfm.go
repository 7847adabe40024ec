package analytics

import (
	"sort"

	"shoppulse/internal/orders"
)

// RFM computes one recency/frequency/monetary entry per distinct
// customer. Recency is the whole-day difference between the latest
// purchase timestamp in the entire table and the customer's own latest
// purchase, truncating time-of-day, so it is non-negative by
// construction. Frequency is the customer's distinct-order count and
// monetary the sum of payment values over all of the customer's rows
// without order deduplication.
//
// Customers with a single order are valid entries. The output is sorted
// by customer id for deterministic presentation.
func RFM(table orders.Table) []RFMEntry {
	if len(table) == 0 {
		return []RFMEntry{}
	}

	type group struct {
		lastOrder orders.Order
		orderIDs  map[string]struct{}
		monetary  float64
	}

	groups := make(map[string]*group)
	for _, order := range table {
		g, ok := groups[order.CustomerID]
		if !ok {
			g = &group{lastOrder: order, orderIDs: make(map[string]struct{})}
			groups[order.CustomerID] = g
		}
		if order.PurchasedAt.After(g.lastOrder.PurchasedAt) {
			g.lastOrder = order
		}
		g.orderIDs[order.OrderID] = struct{}{}
		g.monetary += order.PaymentValue
	}

	_, max, _ := table.Bounds()
	referenceDate := orders.DateOf(max)

	entries := make([]RFMEntry, 0, len(groups))
	for customerID, g := range groups {
		lastDay := orders.DateOf(g.lastOrder.PurchasedAt)
		entries = append(entries, RFMEntry{
			CustomerID: customerID,
			Recency:    int(referenceDate.Sub(lastDay).Hours() / 24),
			Frequency:  len(g.orderIDs),
			Monetary:   g.monetary,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CustomerID < entries[j].CustomerID
	})

	return entries
}
