package analytics

import (
	"shoppulse/internal/orders"
)

// DailyMetrics buckets the table by calendar day and computes each day's
// distinct-order count and revenue sum. The output covers every day from
// the table's earliest to latest purchase date: days without orders are
// emitted with zero values, so the series is contiguous for charting.
//
// Revenue is the sum of payment_value over all rows in the bucket without
// deduplicating by order: an order paid in two installments contributes
// both amounts.
func DailyMetrics(table orders.Table) []DailyMetric {
	if len(table) == 0 {
		return []DailyMetric{}
	}

	type bucket struct {
		orderIDs map[string]struct{}
		revenue  float64
	}

	buckets := make(map[string]*bucket)
	for _, order := range table {
		key := orders.DateOf(order.PurchasedAt).Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{orderIDs: make(map[string]struct{})}
			buckets[key] = b
		}
		b.orderIDs[order.OrderID] = struct{}{}
		b.revenue += order.PaymentValue
	}

	min, max, _ := table.Bounds()
	first := orders.DateOf(min)
	last := orders.DateOf(max)

	metrics := make([]DailyMetric, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		metric := DailyMetric{Date: day}
		if b, ok := buckets[day.Format("2006-01-02")]; ok {
			metric.OrderCount = len(b.orderIDs)
			metric.Revenue = b.revenue
		}
		metrics = append(metrics, metric)
	}

	return metrics
}
