package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aowotoys/catalog-sync/models"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte(utf8BOM)), "missing BOM")
	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		price int64
		want  int64
	}{
		{1000, 1600},
		{999, 1590},
		{0, 0},
		{5, 0},
		{250, 400},
		{1234, 1970},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FinalPrice(tt.price, DefaultMarkup), "price %d", tt.price)
	}

	assert.Equal(t, int64(20), FinalPrice(25, decimal.RequireFromString("1.1")))
	assert.Equal(t, int64(40), FinalPrice(35, decimal.RequireFromString("1.3")))
}

func TestRewriteName(t *testing.T) {
	assert.Equal(t, "阿庫力 鋼彈 RX-78 展示盒", RewriteName("AOWOBOX 高達 RX-78 展示盒"))
	assert.Equal(t, "泡泡瑪特 展示盒", RewriteName("泡泡瑪特 展示盒"))
}

func TestRow(t *testing.T) {
	e := New(Options{})
	rec := models.ProductRecord{ID: 1, ProductID: "abc", URL: "u", Name: "AOWOBOX 高達", Price: 1000, Option: "單盒+ 無燈"}

	row, err := e.Row(rec, true)
	require.NoError(t, err)
	require.Len(t, row, len(AllHeader))
	assert.Equal(t, "50008", row[0])
	assert.Equal(t, "阿庫力 鋼彈", row[1])
	assert.Equal(t, "單盒+ 無燈", row[2])
	assert.Equal(t, "1600", row[3])
	assert.Equal(t, "10", row[4])
	assert.Equal(t, "6438417", row[5])
	assert.True(t, strings.HasPrefix(row[6], "專為 阿庫力 鋼彈 設計的壓克力公仔模型展示盒"))
	assert.Contains(t, row[6], "商品規格：單盒+ 無燈")
	assert.Equal(t, "", row[7])
	assert.Equal(t, "abc_1.jpg", row[8])
	assert.Equal(t, "abc_2.jpg", row[9])
	for _, c := range row[10:] {
		assert.Empty(t, c)
	}

	row, err = e.Row(rec, false)
	require.NoError(t, err)
	require.Len(t, row, len(PerProductHeader))
	assert.Equal(t, "1600", row[2])
	assert.Equal(t, "abc_1.jpg", row[7])
}

func TestRow_Invalid(t *testing.T) {
	e := New(Options{})
	for _, rec := range []models.ProductRecord{
		{ID: 1, URL: "u", Name: "n", Price: 1},
		{ID: 2, ProductID: "abc", URL: "u", Price: 1},
		{ID: 3, ProductID: "abc", URL: "u", Name: "n", Price: -1},
	} {
		_, err := e.Row(rec, true)
		assert.True(t, IsRowTransformError(err), "record %d", rec.ID)
	}
}

func TestHeaders(t *testing.T) {
	assert.Len(t, PerProductHeader, 34)
	assert.Len(t, AllHeader, 35)
	assert.Equal(t, "OPTION", AllHeader[2])
	assert.Equal(t, PerProductHeader[2], AllHeader[3])
}

func TestExportAll(t *testing.T) {
	records := []models.ProductRecord{
		{ID: 1, ProductID: "abc", URL: "u1", Name: "AOWOBOX 高達", Price: 1000, Option: "A"},
		{ID: 2, ProductID: "", URL: "u2", Name: "broken", Price: 1000},
		{ID: 3, ProductID: "def", URL: "u3", Name: "盒", Price: 999, Option: "B"},
	}

	var buf bytes.Buffer
	n, err := New(Options{}).ExportAll(context.Background(), records, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, AllHeader, rows[0])
	assert.Equal(t, "阿庫力 鋼彈", rows[1][1])
	assert.Equal(t, "1600", rows[1][3])
	assert.Equal(t, "1590", rows[2][3])
	assert.Contains(t, rows[2][6], "\n\n商品材質：壓克力\n\n")
}

func TestExportAll_Limit(t *testing.T) {
	records := make([]models.ProductRecord, 5)
	for i := range records {
		records[i] = models.ProductRecord{ID: int64(i + 1), ProductID: "p", URL: "u", Name: "n", Price: 100}
	}

	var buf bytes.Buffer
	n, err := New(Options{Limit: 2}).ExportAll(context.Background(), records, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, readCSV(t, buf.Bytes()), 3)
}

func TestExportPerProduct(t *testing.T) {
	root := t.TempDir()
	records := []models.ProductRecord{
		{ID: 1, ProductID: "abc", URL: "u1", Name: "盒", Price: 1000, Option: "A"},
		{ID: 2, ProductID: "abc", URL: "u2", Name: "盒", Price: 999, Option: "B"},
		{ID: 3, ProductID: "def", URL: "u3", Name: "盒", Price: 250},
	}
	e := New(Options{})

	for run := 0; run < 2; run++ {
		n, err := e.ExportPerProduct(context.Background(), records, root)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}

	data, err := os.ReadFile(filepath.Join(root, "abc", PerProductFile))
	require.NoError(t, err)
	rows := readCSV(t, data)
	require.Len(t, rows, 3, "second run replaces the file instead of appending")
	assert.Equal(t, PerProductHeader, rows[0])
	assert.Equal(t, "1600", rows[1][2])
	assert.Equal(t, "1590", rows[2][2])

	data, err = os.ReadFile(filepath.Join(root, "def", PerProductFile))
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), 2)
}

func TestExportAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := New(Options{}).ExportAll(ctx, []models.ProductRecord{{ProductID: "p", URL: "u", Name: "n"}}, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}
