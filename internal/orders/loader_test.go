package orders

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppulse/internal/config"
)

const sampleCSV = `order_id,customer_unique_id,customer_city,customer_state,product_category_name_english,order_purchase_timestamp,order_delivered_customer_date,payment_value,review_score
B,C2,rio,RJ,toys,2018-01-02 08:30:00,2018-01-10 12:00:00,25.50,4
A,C1,sao paulo,SP,electronics,2018-01-01 10:00:00,,100.00,5
C,C1,sao paulo,SP,,2018-01-03 09:15:00,2018-01-09 16:00:00,10.00,
`

func testDatasetConfig() config.DatasetConfig {
	return config.DatasetConfig{
		FetchTimeout:    5 * time.Second,
		TimestampLayout: "2006-01-02 15:04:05",
	}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadFrom_File(t *testing.T) {
	loader := NewLoader(testDatasetConfig(), slog.Default())

	table, err := loader.LoadFrom(context.Background(), writeTempCSV(t, sampleCSV))
	require.NoError(t, err)
	require.Len(t, table, 3)

	// Sorted ascending by purchase timestamp
	assert.Equal(t, "A", table[0].OrderID)
	assert.Equal(t, "B", table[1].OrderID)
	assert.Equal(t, "C", table[2].OrderID)

	first := table[0]
	assert.Equal(t, "C1", first.CustomerID)
	assert.Equal(t, "sao paulo", first.CustomerCity)
	assert.Equal(t, "SP", first.CustomerState)
	assert.Equal(t, "electronics", first.ProductCategory)
	assert.Equal(t, 100.00, first.PaymentValue)
	assert.Nil(t, first.DeliveredAt)
	require.NotNil(t, first.ReviewScore)
	assert.Equal(t, 5, *first.ReviewScore)

	// Null category and null review survive as empty values
	assert.Empty(t, table[2].ProductCategory)
	assert.Nil(t, table[2].ReviewScore)
	require.NotNil(t, table[1].DeliveredAt)
}

func TestLoader_LoadFrom_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	loader := NewLoader(testDatasetConfig(), slog.Default())

	table, err := loader.LoadFrom(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestLoader_LoadFrom_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	loader := NewLoader(testDatasetConfig(), slog.Default())

	_, err := loader.LoadFrom(context.Background(), server.URL)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, server.URL, loadErr.URI)
}

func TestLoader_LoadFrom_MissingFile(t *testing.T) {
	loader := NewLoader(testDatasetConfig(), slog.Default())

	_, err := loader.LoadFrom(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoader_LoadFrom_BOM(t *testing.T) {
	content := "\xEF\xBB\xBF" + sampleCSV
	loader := NewLoader(testDatasetConfig(), slog.Default())

	table, err := loader.LoadFrom(context.Background(), writeTempCSV(t, content))
	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestFindColumnIndices_BOMPrefixedHeader(t *testing.T) {
	header := []string{"\uFEFForder_id", "customer_unique_id", "order_purchase_timestamp", "payment_value"}

	cols, err := findColumnIndices(header)
	require.NoError(t, err)
	assert.Equal(t, 0, cols.orderID)
}

func TestLoader_LoadFrom_BadTimestamp(t *testing.T) {
	content := `order_id,customer_unique_id,order_purchase_timestamp,payment_value
A,C1,not-a-timestamp,10.00
`
	loader := NewLoader(testDatasetConfig(), slog.Default())

	_, err := loader.LoadFrom(context.Background(), writeTempCSV(t, content))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "order_purchase_timestamp", parseErr.Column)
	assert.Equal(t, 2, parseErr.Line)
}

func TestLoader_LoadFrom_BadPayment(t *testing.T) {
	content := `order_id,customer_unique_id,order_purchase_timestamp,payment_value
A,C1,2018-01-01 10:00:00,-5.00
`
	loader := NewLoader(testDatasetConfig(), slog.Default())

	_, err := loader.LoadFrom(context.Background(), writeTempCSV(t, content))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "payment_value", parseErr.Column)
}

func TestLoader_LoadFrom_MissingRequiredColumns(t *testing.T) {
	content := "some_column,another\n1,2\n"
	loader := NewLoader(testDatasetConfig(), slog.Default())

	_, err := loader.LoadFrom(context.Background(), writeTempCSV(t, content))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "required columns not found")
}

func TestLoader_LoadFrom_StableSortPreservesSourceOrder(t *testing.T) {
	// Two rows share a timestamp; the stable sort must keep source order
	content := `order_id,customer_unique_id,order_purchase_timestamp,payment_value
X,C1,2018-01-01 10:00:00,1.00
Y,C2,2018-01-01 10:00:00,2.00
`
	loader := NewLoader(testDatasetConfig(), slog.Default())

	table, err := loader.LoadFrom(context.Background(), writeTempCSV(t, content))
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "X", table[0].OrderID)
	assert.Equal(t, "Y", table[1].OrderID)
}

func TestTable_Bounds(t *testing.T) {
	loader := NewLoader(testDatasetConfig(), slog.Default())

	table, err := loader.LoadFrom(context.Background(), writeTempCSV(t, sampleCSV))
	require.NoError(t, err)

	min, max, ok := table.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC), min)
	assert.Equal(t, time.Date(2018, 1, 3, 9, 15, 0, 0, time.UTC), max)

	_, _, ok = Table{}.Bounds()
	assert.False(t, ok)
}
