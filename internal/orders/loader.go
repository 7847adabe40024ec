package orders

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"shoppulse/internal/config"
)

// Loader fetches the raw order table from an http(s) URL or a local file
// and normalizes its timestamp columns.
type Loader struct {
	cfg    config.DatasetConfig
	client *http.Client
	logger *slog.Logger
}

// NewLoader creates a loader for the configured dataset source
func NewLoader(cfg config.DatasetConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		logger: logger.With(slog.String("component", "order_loader")),
	}
}

// Load fetches and parses the order table from the configured source URI.
// The returned table is stable-sorted ascending by purchase timestamp;
// downstream tie-break behavior depends on that ordering.
func (l *Loader) Load(ctx context.Context) (Table, error) {
	return l.LoadFrom(ctx, l.cfg.SourceURI)
}

// LoadFrom fetches and parses the order table from the given URI.
func (l *Loader) LoadFrom(ctx context.Context, uri string) (Table, error) {
	l.logger.InfoContext(ctx, "loading order dataset", slog.String("source_uri", uri))

	reader, err := l.open(ctx, uri)
	if err != nil {
		return nil, &LoadError{URI: uri, Err: err}
	}
	defer reader.Close()

	table, err := l.parse(reader)
	if err != nil {
		if _, ok := err.(*ParseError); ok {
			return nil, err
		}
		return nil, &LoadError{URI: uri, Err: err}
	}

	// Stable sort so rows with equal timestamps keep their source order.
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].PurchasedAt.Before(table[j].PurchasedAt)
	})

	l.logger.InfoContext(ctx, "order dataset loaded",
		slog.String("source_uri", uri),
		slog.Int("row_count", len(table)))

	return table, nil
}

// open returns a reader for the source, fetching over HTTP for URLs and
// opening the file otherwise.
func (l *Loader) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(uri)
}

// columnIndices holds the positions of the known columns in the header
type columnIndices struct {
	orderID     int
	customerID  int
	city        int
	state       int
	category    int
	purchasedAt int
	deliveredAt int
	payment     int
	review      int
}

// Required columns; the rest may be absent and default to empty values.
const (
	colOrderID     = "order_id"
	colCustomerID  = "customer_unique_id"
	colCity        = "customer_city"
	colState       = "customer_state"
	colCategory    = "product_category_name_english"
	colPurchasedAt = "order_purchase_timestamp"
	colDeliveredAt = "order_delivered_customer_date"
	colPayment     = "payment_value"
	colReview      = "review_score"
)

func (l *Loader) parse(r io.Reader) (Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	// Remove UTF-8 BOM if present
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	cols, err := findColumnIndices(records[0])
	if err != nil {
		return nil, err
	}

	table := make(Table, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2 // 1-based, after the header

		order, err := l.parseRow(record, cols, line)
		if err != nil {
			return nil, err
		}
		table = append(table, order)
	}

	return table, nil
}

// findColumnIndices resolves the known columns from the header by name
func findColumnIndices(header []string) (columnIndices, error) {
	cols := columnIndices{
		orderID: -1, customerID: -1, city: -1, state: -1, category: -1,
		purchasedAt: -1, deliveredAt: -1, payment: -1, review: -1,
	}

	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))
		switch strings.ToLower(name) {
		case colOrderID:
			cols.orderID = i
		case colCustomerID:
			cols.customerID = i
		case colCity:
			cols.city = i
		case colState:
			cols.state = i
		case colCategory:
			cols.category = i
		case colPurchasedAt:
			cols.purchasedAt = i
		case colDeliveredAt:
			cols.deliveredAt = i
		case colPayment:
			cols.payment = i
		case colReview:
			cols.review = i
		}
	}

	var missing []string
	if cols.orderID == -1 {
		missing = append(missing, colOrderID)
	}
	if cols.customerID == -1 {
		missing = append(missing, colCustomerID)
	}
	if cols.purchasedAt == -1 {
		missing = append(missing, colPurchasedAt)
	}
	if cols.payment == -1 {
		missing = append(missing, colPayment)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("required columns not found: %v. Header: %v", missing, header)
	}

	return cols, nil
}

func (l *Loader) parseRow(record []string, cols columnIndices, line int) (Order, error) {
	order := Order{
		OrderID:    field(record, cols.orderID),
		CustomerID: field(record, cols.customerID),
	}

	purchased, err := l.parseTimestamp(field(record, cols.purchasedAt))
	if err != nil {
		return order, &ParseError{Column: colPurchasedAt, Line: line, Err: err}
	}
	order.PurchasedAt = purchased

	if raw := field(record, cols.deliveredAt); raw != "" {
		delivered, err := l.parseTimestamp(raw)
		if err != nil {
			return order, &ParseError{Column: colDeliveredAt, Line: line, Err: err}
		}
		order.DeliveredAt = &delivered
	}

	payment, err := strconv.ParseFloat(field(record, cols.payment), 64)
	if err != nil {
		return order, &ParseError{Column: colPayment, Line: line, Err: err}
	}
	if payment < 0 {
		return order, &ParseError{Column: colPayment, Line: line, Err: fmt.Errorf("negative payment value %v", payment)}
	}
	order.PaymentValue = payment

	order.CustomerCity = field(record, cols.city)
	order.CustomerState = field(record, cols.state)
	order.ProductCategory = field(record, cols.category)

	// A missing or non-integer review score is a null, not an error;
	// out-of-domain values are excluded later by the rating tally.
	if raw := field(record, cols.review); raw != "" {
		if score, err := strconv.Atoi(raw); err == nil {
			order.ReviewScore = &score
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			s := int(f)
			order.ReviewScore = &s
		}
	}

	return order, nil
}

// parseTimestamp accepts the configured layout with a date-only fallback
func (l *Loader) parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(l.cfg.TimestampLayout, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

// field safely extracts a column value from a record
func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
