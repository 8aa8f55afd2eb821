package market

import (
	"context"
	"fmt"
	"net/http"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooSource reads quotes and daily history from Yahoo Finance.
type YahooSource struct{}

// NewYahooSource configures the finance-go client with the given timeout.
// The client is package global in finance-go, so the last call wins.
func NewYahooSource(timeout time.Duration) *YahooSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	finance.SetHTTPClient(&http.Client{Timeout: timeout})
	return &YahooSource{}
}

func (y *YahooSource) Quote(ctx context.Context, symbol string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, ErrNoData
	}

	asOf := time.Now()
	if q.RegularMarketTime > 0 {
		asOf = time.Unix(int64(q.RegularMarketTime), 0)
	}
	return &Snapshot{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(q.RegularMarketPrice),
		Change:    decimal.NewFromFloat(q.RegularMarketChange),
		ChangePct: decimal.NewFromFloat(q.RegularMarketChangePercent),
		High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
		Unit:      "USD/oz",
		AsOf:      asOf,
	}, nil
}

func (y *YahooSource) History(ctx context.Context, symbol string, start, end time.Time) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	var points []Point
	for iter.Next() {
		bar := iter.Bar()
		if bar.Close.IsZero() {
			continue
		}
		points = append(points, Point{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			Value: bar.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}
	return points, nil
}
