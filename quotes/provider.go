package quotes

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownSymbol means the provider does not recognize the ticker.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUnavailable means the provider could not be reached or returned
	// an unusable response.
	ErrUnavailable = errors.New("quote service unavailable")
)

// Quote is the current market price for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Provider looks up live quotes.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}
