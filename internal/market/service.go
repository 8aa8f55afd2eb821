package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Snapshot, error)
}

type SeriesSource interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]Point, error)
}

type RatesSource interface {
	Rates(ctx context.Context) (*MetalRates, error)
}

// KuwaitTable holds the local per-gram prices in KWD.
type KuwaitTable struct {
	K24, K22, K21, K18 float64
}

type Options struct {
	GoldSymbol string
	ChartDays  int
	Kuwait     KuwaitTable
}

type Service struct {
	quotes QuoteSource
	series SeriesSource
	rates  RatesSource
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

func NewService(q QuoteSource, s SeriesSource, r RatesSource, opts Options, log *slog.Logger) *Service {
	if opts.GoldSymbol == "" {
		opts.GoldSymbol = "GC=F"
	}
	if opts.ChartDays <= 0 {
		opts.ChartDays = 30
	}
	return &Service{quotes: q, series: s, rates: r, opts: opts, log: log, now: time.Now}
}

func (s *Service) Gold(ctx context.Context) (*Snapshot, error) {
	snap, err := s.quotes.Quote(ctx, s.opts.GoldSymbol)
	if err != nil {
		s.log.Warn("gold quote failed", "symbol", s.opts.GoldSymbol, "error", err)
		return nil, err
	}
	return snap, nil
}

func (s *Service) Kuwait() KuwaitPrices {
	k := s.opts.Kuwait
	return KuwaitPrices{
		K24:      decimal.NewFromFloat(k.K24),
		K22:      decimal.NewFromFloat(k.K22),
		K21:      decimal.NewFromFloat(k.K21),
		K18:      decimal.NewFromFloat(k.K18),
		Currency: "KWD",
		AsOf:     s.now(),
	}
}

func (s *Service) Metals(ctx context.Context) (*MetalRates, error) {
	if s.rates == nil {
		return nil, ErrNoData
	}
	r, err := s.rates.Rates(ctx)
	if err != nil {
		s.log.Warn("metal rates failed", "error", err)
		return nil, err
	}
	return r, nil
}

// GoldChart returns daily closes for the configured window, oldest first.
func (s *Service) GoldChart(ctx context.Context) (*Chart, error) {
	end := s.now()
	start := end.AddDate(0, 0, -s.opts.ChartDays)

	points, err := s.series.History(ctx, s.opts.GoldSymbol, start, end)
	if err != nil {
		s.log.Warn("gold history failed", "symbol", s.opts.GoldSymbol, "error", err)
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return NewLineChart(fmt.Sprintf("Gold Price - Last %d Days", s.opts.ChartDays), "Price (USD/oz)", points), nil
}
