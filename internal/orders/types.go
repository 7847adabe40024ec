// Package orders loads the raw e-commerce order table and restricts it to
// caller-chosen date windows. Every downstream aggregation consumes the
// timestamp-sorted Table produced here.
package orders

import (
	"errors"
	"fmt"
	"time"
)

// Order is one row of the raw order table. An order id is not unique
// across rows: an order with several line items or payments appears once
// per item/payment.
type Order struct {
	OrderID         string     `json:"order_id"`
	CustomerID      string     `json:"customer_unique_id"`
	CustomerCity    string     `json:"customer_city"`
	CustomerState   string     `json:"customer_state"`
	ProductCategory string     `json:"product_category_name_english"`
	PurchasedAt     time.Time  `json:"order_purchase_timestamp"`
	DeliveredAt     *time.Time `json:"order_delivered_customer_date,omitempty"`
	PaymentValue    float64    `json:"payment_value"`
	ReviewScore     *int       `json:"review_score,omitempty"`
}

// Table is an immutable sequence of orders sorted ascending by purchase
// timestamp. Aggregations rely on this ordering for stable tie-breaks and
// must never reorder it.
type Table []Order

// Bounds returns the earliest and latest purchase timestamps in the table.
// ok is false for an empty table.
func (t Table) Bounds() (min, max time.Time, ok bool) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}, false
	}
	// Rows are sorted by purchase timestamp, so the bounds are the ends.
	return t[0].PurchasedAt, t[len(t)-1].PurchasedAt, true
}

// ErrInvalidRange is returned when a filter window's start date falls
// after its end date.
var ErrInvalidRange = errors.New("invalid date range: start after end")

// LoadError indicates the dataset source was unreachable or structurally
// malformed.
type LoadError struct {
	URI string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load orders from %s: %v", e.URI, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError indicates a required column held a value that could not be
// parsed. It identifies the offending column and data line.
type ParseError struct {
	Column string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable value in column %q at line %d: %v", e.Column, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DateOf truncates a timestamp to its calendar date, dropping the
// time-of-day component.
func DateOf(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}
