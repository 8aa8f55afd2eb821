package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleCSV = `Product Name,Model,Price,Quantity
1 oz Gold Bar,1 oz Standard Gold Bar,2.1,10
10g Gold Bar,10g Premium Gold Bar,0.65,15
Broken Price,Model X,abc,3
Negative Qty,Model Y,1.00,-2
,No Name,1.00,1
Silver Coin,Maple Leaf,0.0300,7.0
`

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	products, err := ReadCSV(strings.NewReader(sampleCSV), discardLogger())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "1 oz Gold Bar", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("2.1")))
	assert.Equal(t, 10, products[0].Quantity)
	assert.Equal(t, "Silver Coin", products[2].Name)
	assert.Equal(t, 7, products[2].Quantity)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Product Name,Model\nx,y\n"), discardLogger())
	assert.Error(t, err)
}

func TestReadCSV_HeaderOnlyAndEmpty(t *testing.T) {
	products, err := ReadCSV(strings.NewReader(""), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, products)

	products, err = ReadCSV(strings.NewReader("Product Name,Model,Price,Quantity\n"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadFile_MissingFallsBackToSample(t *testing.T) {
	products, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, SampleProducts(), products)
}

func TestLoadFile_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	products, err := LoadFile(path, discardLogger())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestCatalog_SearchTopAll(t *testing.T) {
	c := New(SampleProducts())

	assert.Equal(t, 5, c.Len())
	assert.Len(t, c.All(), 5)
	assert.Len(t, c.Top(3), 3)
	assert.Len(t, c.Top(10), 5)
	assert.Empty(t, c.Top(0))

	hits := c.Search("GOLD BAR")
	assert.Len(t, hits, 3)

	// model column is searched too
	hits = c.Search("دائري")
	require.Len(t, hits, 1)
	assert.Equal(t, "0.25 Kg BTC Round Purity 999.9", hits[0].Name)

	assert.Empty(t, c.Search(""))
	assert.Empty(t, c.Search("platinum"))
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := New(SampleProducts())

	all := c.All()
	all[0].Name = "changed"

	assert.Equal(t, "0.25 kg BTC Purity 999.9", c.All()[0].Name)
}

func TestCatalog_ReplaceIsAtomicForReaders(t *testing.T) {
	c := New(SampleProducts())
	small := SampleProducts()[:2]

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := c.Len()
				assert.True(t, n == 5 || n == 2)
			}
		}()
	}
	for j := 0; j < 50; j++ {
		c.Replace(small)
		c.Replace(SampleProducts())
	}
	wg.Wait()
}
