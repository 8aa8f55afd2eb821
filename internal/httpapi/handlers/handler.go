package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/suPer8Hu/goldgpt/internal/catalog"
	"github.com/suPer8Hu/goldgpt/internal/chat"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/market"
)

type PriceSource interface {
	Gold(ctx context.Context) (*market.Snapshot, error)
	Kuwait() market.KuwaitPrices
	Metals(ctx context.Context) (*market.MetalRates, error)
}

type Handler struct {
	ChatSvc  *chat.Service
	ImageSvc *imagegen.Service
	JobQueue *imagegen.Queue // nil when async image jobs are disabled
	PriceSvc PriceSource
	Catalog  *catalog.Catalog
	Log      *slog.Logger

	// ImagesURL is the public prefix images are served under.
	ImagesURL string

	now func() time.Time
}

func NewHandler(h Handler) *Handler {
	if h.Log == nil {
		h.Log = slog.Default()
	}
	if h.ImagesURL == "" {
		h.ImagesURL = "/api/images"
	}
	h.now = time.Now
	return &h
}
