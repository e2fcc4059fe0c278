package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// AlphaVantage fetches quotes from the Alpha Vantage REST API.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewAlphaVantage(apiKey, baseURL string) *AlphaVantage {
	return &AlphaVantage{
		APIKey:  apiKey,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup resolves the current price and company name for a symbol.
// An empty price field in an otherwise valid response means the symbol
// is not listed.
func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrUnknownSymbol
	}

	var gq globalQuoteResponse
	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", a.BaseURL, symbol, a.APIKey)
	if err := a.getJSON(ctx, url, &gq); err != nil {
		return Quote{}, err
	}
	if gq.GlobalQuote.Price == "" {
		return Quote{}, ErrUnknownSymbol
	}

	price, err := decimal.NewFromString(gq.GlobalQuote.Price)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: bad price %q", ErrUnavailable, gq.GlobalQuote.Price)
	}

	return Quote{
		Symbol: symbol,
		Name:   a.companyName(ctx, symbol),
		Price:  price,
	}, nil
}

// companyName queries SYMBOL_SEARCH for the listed name. The quote is still
// usable without it, so failures fall back to the ticker itself.
func (a *AlphaVantage) companyName(ctx context.Context, symbol string) string {
	var sr symbolSearchResponse
	url := fmt.Sprintf("%s/query?function=SYMBOL_SEARCH&keywords=%s&apikey=%s", a.BaseURL, symbol, a.APIKey)
	if err := a.getJSON(ctx, url, &sr); err != nil {
		return symbol
	}
	for _, m := range sr.BestMatches {
		if strings.EqualFold(m.Symbol, symbol) && m.Name != "" {
			return m.Name
		}
	}
	return symbol
}

func (a *AlphaVantage) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
