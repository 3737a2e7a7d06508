package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"satfolio-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// HTTPFetcher fetches USD prices over HTTP from the source appropriate to the
// asset class: base unit, commodities, everything else/equities.
type HTTPFetcher struct {
	BaseQuoteURL      string
	CommodityQuoteURL string
	EquityQuoteURL    string
	APIKey            string

	httpClient *http.Client
}

// NewHTTPFetcher builds the fetcher with a bounded HTTP client.
func NewHTTPFetcher(baseURL, commodityURL, equityURL, apiKey string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseQuoteURL:      baseURL,
		CommodityQuoteURL: commodityURL,
		EquityQuoteURL:    equityURL,
		APIKey:            apiKey,
		httpClient:        &http.Client{Timeout: FetchTimeout},
	}
}

// commoditySlugs maps registry symbols to the metals API's slugs.
var commoditySlugs = map[string]string{
	"XAU": "gold",
	"XAG": "silver",
	"XPT": "platinum",
}

func (f *HTTPFetcher) Fetch(ctx context.Context, asset domain.Asset) (decimal.Decimal, []byte, error) {
	switch asset.Class {
	case domain.ClassBase:
		return f.fetchBase(ctx)
	case domain.ClassCommodity:
		return f.fetchCommodity(ctx, asset.Symbol)
	default:
		return f.fetchEquity(ctx, asset.Symbol)
	}
}

// fetchBase reads the spot price endpoint: {"data":{"amount":"...","currency":"USD"}}.
func (f *HTTPFetcher) fetchBase(ctx context.Context) (decimal.Decimal, []byte, error) {
	body, err := f.get(ctx, f.BaseQuoteURL)
	if err != nil {
		return decimal.Zero, nil, err
	}
	var parsed struct {
		Data struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, nil, err
	}
	price, err := decimal.NewFromString(parsed.Data.Amount)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("bad spot amount %q: %w", parsed.Data.Amount, err)
	}
	return price, body, nil
}

// fetchCommodity reads the metals endpoint: {"metals":{"gold":...,"silver":...}}.
func (f *HTTPFetcher) fetchCommodity(ctx context.Context, symbol string) (decimal.Decimal, []byte, error) {
	slug, ok := commoditySlugs[symbol]
	if !ok {
		return decimal.Zero, nil, fmt.Errorf("no commodity slug for %s", symbol)
	}
	u := fmt.Sprintf("%s?api_key=%s&currency=USD&unit=toz", f.CommodityQuoteURL, url.QueryEscape(f.APIKey))
	body, err := f.get(ctx, u)
	if err != nil {
		return decimal.Zero, nil, err
	}
	var parsed struct {
		Metals map[string]float64 `json:"metals"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, nil, err
	}
	v, ok := parsed.Metals[slug]
	if !ok {
		return decimal.Zero, nil, fmt.Errorf("metal %s missing from response", slug)
	}
	return decimal.NewFromFloat(v), body, nil
}

// fetchEquity reads the quote endpoint: {"c": current, "pc": previous close, ...}.
func (f *HTTPFetcher) fetchEquity(ctx context.Context, symbol string) (decimal.Decimal, []byte, error) {
	u := fmt.Sprintf("%s?symbol=%s&token=%s", f.EquityQuoteURL, url.QueryEscape(symbol), url.QueryEscape(f.APIKey))
	body, err := f.get(ctx, u)
	if err != nil {
		return decimal.Zero, nil, err
	}
	var parsed struct {
		Current float64 `json:"c"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, nil, err
	}
	return decimal.NewFromFloat(parsed.Current), body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("X-Api-Key", f.APIKey)
	}

	client := f.httpClient
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote source returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

var _ Fetcher = (*HTTPFetcher)(nil)
