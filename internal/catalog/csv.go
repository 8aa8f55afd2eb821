package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	colName     = "Product Name"
	colModel    = "Model"
	colPrice    = "Price"
	colQuantity = "Quantity"
)

// SampleProducts is the catalog used when no CSV file is present.
func SampleProducts() []Product {
	return []Product{
		{Name: "0.25 kg BTC Purity 999.9", Model: "ربع كيلو اماراتي نقاوة 999.9", Price: decimal.RequireFromString("17"), Quantity: 5},
		{Name: "0.25 Kg BTC Round Purity 999.9", Model: "ربع كيلو اماراتي دائري نقاوة 999.9 BTC", Price: decimal.RequireFromString("20"), Quantity: 5},
		{Name: "1 oz Gold Bar", Model: "1 oz Standard Gold Bar", Price: decimal.RequireFromString("2.1"), Quantity: 10},
		{Name: "10g Gold Bar", Model: "10g Premium Gold Bar", Price: decimal.RequireFromString("0.65"), Quantity: 15},
		{Name: "50g Gold Bar", Model: "50g Investment Gold Bar", Price: decimal.RequireFromString("3.25"), Quantity: 8},
	}
}

// LoadFile reads the product CSV at path. A missing file yields the sample
// catalog; an unreadable one is an error.
func LoadFile(path string, log *slog.Logger) ([]Product, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("products csv not found, using sample catalog", "path", path)
		return SampleProducts(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open products csv: %w", err)
	}
	defer f.Close()

	products, err := ReadCSV(f, log)
	if err != nil {
		return nil, fmt.Errorf("read products csv %s: %w", path, err)
	}
	log.Info("loaded products from csv", "path", path, "count", len(products))
	return products, nil
}

// ReadCSV parses a header-indexed product table. Rows with a missing name or
// a malformed or negative price/quantity are skipped.
func ReadCSV(r io.Reader, log *slog.Logger) ([]Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{colName, colPrice, colQuantity} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Product
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		var pe *csv.ParseError
		if err != nil && !errors.As(err, &pe) {
			return nil, err
		}
		if err != nil {
			log.Warn("skipping unreadable product row", "line", line, "error", err)
			continue
		}

		name := field(rec, colName)
		price, perr := decimal.NewFromString(field(rec, colPrice))
		qty, qerr := parseQuantity(field(rec, colQuantity))
		if name == "" || perr != nil || qerr != nil || price.IsNegative() || qty < 0 {
			log.Warn("skipping malformed product row", "line", line)
			continue
		}
		out = append(out, Product{
			Name:     name,
			Model:    field(rec, colModel),
			Price:    price,
			Quantity: qty,
		})
	}
	return out, nil
}

// parseQuantity accepts "5" as well as spreadsheet exports like "5.0".
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	return int(d.IntPart()), nil
}
