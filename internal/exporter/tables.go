package exporter

import (
	"strconv"

	"shoppulse/internal/services"
)

// Table is one flattened summary table of a snapshot
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// SnapshotTables flattens a dashboard snapshot into the tables the
// export formats share. Table order matches the dashboard layout.
func SnapshotTables(snap *services.DashboardSnapshot) []Table {
	daily := Table{
		Name:    "Daily Metrics",
		Headers: []string{"date", "order_count", "revenue"},
	}
	for _, m := range snap.Daily {
		daily.Rows = append(daily.Rows, []string{
			m.Date.Format("2006-01-02"),
			strconv.Itoa(m.OrderCount),
			formatFloat(m.Revenue),
		})
	}

	top := Table{
		Name:    "Top Categories",
		Headers: []string{"product_category", "order_count"},
	}
	for _, c := range snap.TopCategories {
		top.Rows = append(top.Rows, []string{c.Category, strconv.Itoa(c.OrderCount)})
	}

	bottom := Table{
		Name:    "Bottom Categories",
		Headers: []string{"product_category", "order_count"},
	}
	for _, c := range snap.BottomCategories {
		bottom.Rows = append(bottom.Rows, []string{c.Category, strconv.Itoa(c.OrderCount)})
	}

	cities := Table{
		Name:    "Cities",
		Headers: []string{"customer_city", "customer_count"},
	}
	for _, g := range snap.Cities {
		cities.Rows = append(cities.Rows, []string{g.Location, strconv.Itoa(g.Count)})
	}

	states := Table{
		Name:    "States",
		Headers: []string{"customer_state", "customer_count"},
	}
	for _, g := range snap.States {
		states.Rows = append(states.Rows, []string{g.Location, strconv.Itoa(g.Count)})
	}

	rfm := Table{
		Name:    "RFM",
		Headers: []string{"customer_unique_id", "recency", "frequency", "monetary"},
	}
	for _, e := range snap.RFM {
		rfm.Rows = append(rfm.Rows, []string{
			e.CustomerID,
			strconv.Itoa(e.Recency),
			strconv.Itoa(e.Frequency),
			formatFloat(e.Monetary),
		})
	}

	ratings := Table{
		Name:    "Ratings",
		Headers: []string{"review_score", "label", "count"},
	}
	for _, r := range snap.Ratings {
		ratings.Rows = append(ratings.Rows, []string{
			strconv.Itoa(r.Score),
			r.Label,
			strconv.Itoa(r.Count),
		})
	}

	return []Table{daily, top, bottom, cities, states, rfm, ratings}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
