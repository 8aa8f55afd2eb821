// Package composer builds the market, product and highlight text that is sent
// to the LLM alongside a user message.
//
// Market figures are rendered with 2 decimals and product prices with 4.
// The two formats are separate on purpose and must stay that way.
package composer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/suPer8Hu/goldgpt/internal/catalog"
	"github.com/suPer8Hu/goldgpt/internal/market"
	"golang.org/x/text/language"
)

const (
	fallbackListing = 5
	highlightCount  = 3
)

type MarketData interface {
	Gold(ctx context.Context) (*market.Snapshot, error)
	Kuwait() market.KuwaitPrices
	Metals(ctx context.Context) (*market.MetalRates, error)
}

type Products interface {
	Search(query string) []catalog.Product
	Top(n int) []catalog.Product
}

type ProductIntent interface {
	WantsProducts(text string) bool
}

// Context is the composed block. Empty sections are omitted by String.
type Context struct {
	Market     string
	Products   string
	Highlights string
}

func (c Context) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{c.Market, c.Products, c.Highlights} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

type Composer struct {
	market   MarketData
	products Products
	intent   ProductIntent
	log      *slog.Logger
}

func New(m MarketData, p Products, intent ProductIntent, log *slog.Logger) *Composer {
	return &Composer{market: m, products: p, intent: intent, log: log}
}

// Compose never fails. Upstream problems become placeholder lines.
func (c *Composer) Compose(ctx context.Context, text string, lang language.Tag) Context {
	l := labelsFor(lang)
	return Context{
		Market:     c.marketSection(ctx, l),
		Products:   c.productSection(text, l),
		Highlights: c.highlightSection(l),
	}
}

func (c *Composer) marketSection(ctx context.Context, l labels) string {
	if c.market == nil {
		return l.marketUnavailable
	}

	var b strings.Builder
	b.WriteString(l.marketHeader + "\n")

	gold, err := c.market.Gold(ctx)
	if err != nil || gold == nil {
		c.log.Warn("composer: gold price unavailable", "error", err)
		fmt.Fprintf(&b, "- %s: %s\n", l.goldPrice, l.unavailable)
		fmt.Fprintf(&b, "- %s: %s\n", l.dailyChange, l.unavailable)
	} else {
		fmt.Fprintf(&b, "- %s: $%s/oz\n", l.goldPrice, gold.Price.StringFixed(2))
		fmt.Fprintf(&b, "- %s: %s (%s%%)\n", l.dailyChange, gold.Change.StringFixed(2), gold.ChangePct.StringFixed(2))
	}

	k := c.market.Kuwait()
	fmt.Fprintf(&b, "- %s: 24K=%s %s/g, 22K=%s %s/g, 21K=%s %s/g, 18K=%s %s/g\n",
		l.kuwaitPrices,
		k.K24.StringFixed(2), k.Currency,
		k.K22.StringFixed(2), k.Currency,
		k.K21.StringFixed(2), k.Currency,
		k.K18.StringFixed(2), k.Currency,
	)
	fmt.Fprintf(&b, "- %s: %s\n", l.marketStatus, l.marketStatusText)

	rates, err := c.market.Metals(ctx)
	if err != nil {
		c.log.Debug("composer: metal rates unavailable", "error", err)
		return b.String()
	}
	if rates != nil && len(rates.Rates) > 0 {
		b.WriteString("\n" + l.metalsHeader + "\n")
		for _, r := range rates.Rates {
			fmt.Fprintf(&b, "- %s: $%s/oz\n", r.Name, r.Price.StringFixed(2))
		}
	}
	return b.String()
}

func (c *Composer) productSection(text string, l labels) string {
	if c.intent == nil || !c.intent.WantsProducts(text) {
		return ""
	}
	if c.products == nil {
		return l.catalogUnavailable
	}

	header := l.matchingHeader
	items := c.products.Search(strings.TrimSpace(text))
	if len(items) == 0 {
		header = l.listingHeader
		items = c.products.Top(fallbackListing)
	}
	if len(items) == 0 {
		return l.catalogUnavailable
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	for _, p := range items {
		fmt.Fprintf(&b, "- %s: $%s, %s: %d\n", p.Name, p.Price.StringFixed(4), l.quantity, p.Quantity)
		fmt.Fprintf(&b, "  %s: %s\n", l.model, p.Model)
	}
	return b.String()
}

func (c *Composer) highlightSection(l labels) string {
	if c.products == nil {
		return ""
	}
	top := c.products.Top(highlightCount)
	if len(top) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(l.highlightsHeader + "\n")
	for _, p := range top {
		fmt.Fprintf(&b, "- %s: $%s (%s: %d)\n", p.Name, p.Price.StringFixed(4), l.stock, p.Quantity)
	}
	return b.String()
}
