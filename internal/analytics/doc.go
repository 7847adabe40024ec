// Package analytics computes the dashboard summary tables from a filtered
// order table: daily order volume and revenue, product-category rankings,
// geographic tallies, RFM customer scores, and review-rating counts.
//
// Every function here is a pure transformation of its input table. The
// input is never mutated and no state is held across calls, so the
// aggregations are safe to run concurrently over the same table. All of
// them are total over an empty table and return empty outputs rather
// than errors.
package analytics
