package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/suPer8Hu/goldgpt/internal/catalog"
	"github.com/suPer8Hu/goldgpt/internal/common"
)

// goldDTO leaves the numbers out only on failure; a flat day still reports
// change 0.
type goldDTO struct {
	Success   bool       `json:"success"`
	Price     *float64   `json:"price,omitempty"`
	Change    *float64   `json:"change,omitempty"`
	ChangePct *float64   `json:"change_pct,omitempty"`
	High24h   *float64   `json:"high_24h,omitempty"`
	Low24h    *float64   `json:"low_24h,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func money(d decimal.Decimal) *float64 {
	f := d.Round(2).InexactFloat64()
	return &f
}

type kuwaitDTO struct {
	Success   bool      `json:"success"`
	K24       float64   `json:"24k_kwd"`
	K22       float64   `json:"22k_kwd"`
	K21       float64   `json:"21k_kwd"`
	K18       float64   `json:"18k_kwd"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

type metalDTO struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Unit   string  `json:"unit"`
}

type metalsDTO struct {
	Success   bool                `json:"success"`
	Base      string              `json:"base,omitempty"`
	Rates     map[string]metalDTO `json:"rates,omitempty"`
	Timestamp *time.Time          `json:"timestamp,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type productDTO struct {
	Name     string  `json:"product_name"`
	Model    string  `json:"model"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Prices never fails as a whole; each source reports its own success flag.
func (h *Handler) Prices(c *gin.Context) {
	ctx := c.Request.Context()

	gold := goldDTO{}
	if snap, err := h.PriceSvc.Gold(ctx); err != nil {
		gold.Error = err.Error()
	} else {
		ts := snap.AsOf
		gold = goldDTO{
			Success:   true,
			Price:     money(snap.Price),
			Change:    money(snap.Change),
			ChangePct: money(snap.ChangePct),
			High24h:   money(snap.High),
			Low24h:    money(snap.Low),
			Timestamp: &ts,
		}
	}

	k := h.PriceSvc.Kuwait()
	kuwait := kuwaitDTO{
		Success:   true,
		K24:       k.K24.InexactFloat64(),
		K22:       k.K22.InexactFloat64(),
		K21:       k.K21.InexactFloat64(),
		K18:       k.K18.InexactFloat64(),
		Currency:  k.Currency,
		Timestamp: k.AsOf,
	}

	metals := metalsDTO{}
	if rates, err := h.PriceSvc.Metals(ctx); err != nil {
		metals.Error = err.Error()
	} else {
		ts := rates.AsOf
		metals = metalsDTO{Success: true, Base: rates.Base, Rates: map[string]metalDTO{}, Timestamp: &ts}
		for _, r := range rates.Rates {
			metals.Rates[r.Key] = metalDTO{
				Name:   r.Name,
				Symbol: r.Symbol,
				Price:  r.Price.InexactFloat64(),
				Unit:   r.Unit,
			}
		}
	}

	common.OK(c, gin.H{"gold": gold, "kuwait": kuwait, "metals": metals})
}

func (h *Handler) Products(c *gin.Context) {
	var items []catalog.Product
	if q := c.Query("query"); q != "" {
		items = h.Catalog.Search(q)
	} else {
		items = h.Catalog.All()
	}

	out := make([]productDTO, 0, len(items))
	for _, p := range items {
		out = append(out, productDTO{
			Name:     p.Name,
			Model:    p.Model,
			Price:    p.Price.InexactFloat64(),
			Quantity: p.Quantity,
		})
	}
	common.OK(c, gin.H{"products": out})
}

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{"status": "healthy", "timestamp": h.now()})
}

func (h *Handler) NotFound(c *gin.Context) {
	common.Fail(c, http.StatusNotFound, "Endpoint not found")
}

func (h *Handler) MethodNotAllowed(c *gin.Context) {
	common.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
}
