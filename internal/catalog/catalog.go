// Package catalog holds the read-only product table loaded at startup.
package catalog

import (
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

type Product struct {
	Name     string          `json:"product_name"`
	Model    string          `json:"model"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Catalog serves lookups from an immutable snapshot. Replace swaps the whole
// table; readers never see a partially updated one.
type Catalog struct {
	snap atomic.Pointer[[]Product]
}

func New(products []Product) *Catalog {
	c := &Catalog{}
	c.Replace(products)
	return c
}

// Replace installs a copy of products as the current snapshot.
func (c *Catalog) Replace(products []Product) {
	cp := append([]Product(nil), products...)
	c.snap.Store(&cp)
}

func (c *Catalog) load() []Product {
	if p := c.snap.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *Catalog) Len() int { return len(c.load()) }

// All returns a copy of every product in catalog order.
func (c *Catalog) All() []Product {
	return append([]Product(nil), c.load()...)
}

// Top returns at most n products from the head of the catalog.
func (c *Catalog) Top(n int) []Product {
	all := c.load()
	if n <= 0 {
		return nil
	}
	if n > len(all) {
		n = len(all)
	}
	return append([]Product(nil), all[:n]...)
}

// Search returns products whose name or model contains query, ignoring case.
// An empty query matches nothing.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, p := range c.load() {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Model), q) {
			out = append(out, p)
		}
	}
	return out
}
