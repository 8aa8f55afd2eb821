// Package market fetches gold and precious-metal prices. Nothing is cached;
// every call hits the upstream source.
package market

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("market: no data available")

// Snapshot is a spot quote for one symbol.
type Snapshot struct {
	Symbol    string
	Price     decimal.Decimal
	Change    decimal.Decimal
	ChangePct decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Unit      string
	AsOf      time.Time
}

// KuwaitPrices are local retail gold prices per gram by karat.
type KuwaitPrices struct {
	K24      decimal.Decimal
	K22      decimal.Decimal
	K21      decimal.Decimal
	K18      decimal.Decimal
	Currency string
	AsOf     time.Time
}

type MetalRate struct {
	Key    string // gold, silver, platinum, palladium
	Symbol string // XAU, XAG, XPT, XPD
	Name   string
	Price  decimal.Decimal
	Unit   string
}

type MetalRates struct {
	Base  string
	Rates []MetalRate // fixed order: gold, silver, platinum, palladium
	AsOf  time.Time
}

type Point struct {
	Date  time.Time
	Value decimal.Decimal
}

// Chart is the line-chart payload handed to the frontend. X and Y are
// parallel: X[i] is the date of Y[i].
type Chart struct {
	X          []string  `json:"x"`
	Y          []float64 `json:"y"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	XAxisTitle string    `json:"xaxis_title"`
	YAxisTitle string    `json:"yaxis_title"`
}

// NewLineChart builds a chart from points in the given order.
func NewLineChart(title, yTitle string, points []Point) *Chart {
	c := &Chart{
		X:          make([]string, 0, len(points)),
		Y:          make([]float64, 0, len(points)),
		Type:       "line",
		Title:      title,
		XAxisTitle: "Date",
		YAxisTitle: yTitle,
	}
	for _, p := range points {
		c.X = append(c.X, p.Date.Format("2006-01-02"))
		c.Y = append(c.Y, p.Value.Round(2).InexactFloat64())
	}
	return c
}
