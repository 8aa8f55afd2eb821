package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// MetalPriceClient talks to a metalpriceapi.com compatible /latest endpoint.
type MetalPriceClient struct {
	client *resty.Client
	url    string
	apiKey string
}

func NewMetalPriceClient(url, apiKey string, timeout time.Duration) *MetalPriceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MetalPriceClient{
		client: resty.New().SetTimeout(timeout),
		url:    url,
		apiKey: apiKey,
	}
}

type metalPriceResp struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

var metals = []struct {
	key, symbol, name string
}{
	{"gold", "XAU", "Gold"},
	{"silver", "XAG", "Silver"},
	{"platinum", "XPT", "Platinum"},
	{"palladium", "XPD", "Palladium"},
}

// Rates returns USD/oz prices. The API quotes ounces per dollar, so each
// price is 1/rate rounded to cents.
func (m *MetalPriceClient) Rates(ctx context.Context) (*MetalRates, error) {
	if strings.TrimSpace(m.apiKey) == "" {
		return nil, errors.New("metalprice: api key is not configured")
	}

	symbols := make([]string, 0, len(metals))
	for _, mt := range metals {
		symbols = append(symbols, mt.symbol)
	}

	var decoded metalPriceResp
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":    m.apiKey,
			"base":       "USD",
			"currencies": strings.Join(symbols, ","),
		}).
		SetResult(&decoded).
		Get(m.url)
	if err != nil {
		return nil, fmt.Errorf("metalprice: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("metalprice: status %d", resp.StatusCode())
	}
	if !decoded.Success {
		if decoded.Error != nil && decoded.Error.Info != "" {
			return nil, fmt.Errorf("metalprice: %s", decoded.Error.Info)
		}
		return nil, errors.New("metalprice: api returned success=false")
	}

	out := &MetalRates{Base: decoded.Base, AsOf: time.Now()}
	if out.Base == "" {
		out.Base = "USD"
	}
	for _, mt := range metals {
		rate, ok := decoded.Rates[mt.symbol]
		if !ok {
			continue
		}
		price := decimal.Zero
		if rate > 0 {
			price = decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(rate), 2)
		}
		out.Rates = append(out.Rates, MetalRate{
			Key:    mt.key,
			Symbol: mt.symbol,
			Name:   mt.name,
			Price:  price,
			Unit:   "USD/oz",
		})
	}
	return out, nil
}
