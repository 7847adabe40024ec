package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppulse/internal/orders"
)

func ts(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyMetrics_MultiPaymentOrder(t *testing.T) {
	// One order paid twice in a single day: one bucket, one distinct
	// order, both payments summed
	table := orders.Table{
		{OrderID: "A", CustomerID: "C1", PurchasedAt: ts(2018, 1, 1, 10), PaymentValue: 10},
		{OrderID: "A", CustomerID: "C1", PurchasedAt: ts(2018, 1, 1, 10), PaymentValue: 20},
	}

	metrics := DailyMetrics(table)
	require.Len(t, metrics, 1)
	assert.Equal(t, day(2018, 1, 1), metrics[0].Date)
	assert.Equal(t, 1, metrics[0].OrderCount)
	assert.Equal(t, 30.0, metrics[0].Revenue)
}

func TestDailyMetrics_GapFilling(t *testing.T) {
	table := orders.Table{
		{OrderID: "A", PurchasedAt: ts(2018, 1, 1, 8), PaymentValue: 5},
		{OrderID: "B", PurchasedAt: ts(2018, 1, 4, 9), PaymentValue: 7},
	}

	metrics := DailyMetrics(table)
	require.Len(t, metrics, 4)

	assert.Equal(t, day(2018, 1, 1), metrics[0].Date)
	assert.Equal(t, 1, metrics[0].OrderCount)

	// Interior days without orders appear with zero values
	assert.Equal(t, day(2018, 1, 2), metrics[1].Date)
	assert.Zero(t, metrics[1].OrderCount)
	assert.Zero(t, metrics[1].Revenue)
	assert.Equal(t, day(2018, 1, 3), metrics[2].Date)
	assert.Zero(t, metrics[2].OrderCount)

	assert.Equal(t, day(2018, 1, 4), metrics[3].Date)
	assert.Equal(t, 7.0, metrics[3].Revenue)
}

func TestDailyMetrics_RevenueConservation(t *testing.T) {
	table := orders.Table{
		{OrderID: "A", PurchasedAt: ts(2018, 1, 1, 8), PaymentValue: 12.5},
		{OrderID: "A", PurchasedAt: ts(2018, 1, 1, 8), PaymentValue: 2.5},
		{OrderID: "B", PurchasedAt: ts(2018, 1, 2, 9), PaymentValue: 40},
		{OrderID: "C", PurchasedAt: ts(2018, 1, 5, 9), PaymentValue: 5},
	}

	var want float64
	for _, o := range table {
		want += o.PaymentValue
	}

	var got float64
	for _, m := range DailyMetrics(table) {
		got += m.Revenue
	}

	assert.InDelta(t, want, got, 1e-9)
}

func TestDailyMetrics_DistinctOrdersAcrossDays(t *testing.T) {
	// The same order id on two different days counts once per day
	table := orders.Table{
		{OrderID: "A", PurchasedAt: ts(2018, 1, 1, 8), PaymentValue: 1},
		{OrderID: "A", PurchasedAt: ts(2018, 1, 2, 8), PaymentValue: 1},
		{OrderID: "B", PurchasedAt: ts(2018, 1, 2, 9), PaymentValue: 1},
	}

	metrics := DailyMetrics(table)
	require.Len(t, metrics, 2)
	assert.Equal(t, 1, metrics[0].OrderCount)
	assert.Equal(t, 2, metrics[1].OrderCount)
}

func TestDailyMetrics_EmptyTable(t *testing.T) {
	metrics := DailyMetrics(orders.Table{})
	assert.NotNil(t, metrics)
	assert.Empty(t, metrics)
}
