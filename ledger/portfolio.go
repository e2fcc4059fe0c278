package ledger

import (
	"context"
	"fmt"

	"stocksim/models"

	"github.com/shopspring/decimal"
)

// Holding is one priced position in the portfolio view.
type Holding struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	TotalShares   int             `json:"total_shares"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PositionValue decimal.Decimal `json:"position_value"`
}

// Portfolio is the account's derived holdings plus cash and the combined
// total. A fresh account yields an empty holdings list with
// grand total = cash.
type Portfolio struct {
	Holdings   []Holding       `json:"holdings"`
	Cash       decimal.Decimal `json:"cash"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Portfolio derives per-symbol holdings from the ledger and prices them at
// live quotes. Pricing is all-or-nothing: if any held symbol cannot be
// quoted the whole aggregation fails. Symbols sold down to zero shares
// still appear as zero-share rows, as the group-by returns them.
func (e *Engine) Portfolio(ctx context.Context, accountID uint) (*Portfolio, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.HoldingRows(ctx, accountID)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(rows))
	grandTotal := acct.Cash
	for _, row := range rows {
		q, err := e.quotes.Lookup(ctx, row.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, row.Symbol)
		}

		value := q.Price.Mul(decimal.NewFromInt(int64(row.TotalShares))).Round(2)
		holdings = append(holdings, Holding{
			Symbol:        row.Symbol,
			Name:          row.Name,
			TotalShares:   row.TotalShares,
			CurrentPrice:  q.Price,
			PositionValue: value,
		})
		grandTotal = grandTotal.Add(value)
	}

	return &Portfolio{
		Holdings:   holdings,
		Cash:       acct.Cash,
		GrandTotal: grandTotal,
	}, nil
}

// History returns the account's ledger in insertion order. Prices are the
// execution-time snapshots, never re-quoted.
func (e *Engine) History(ctx context.Context, accountID uint) ([]models.Transaction, error) {
	return e.store.ListTransactions(ctx, accountID)
}
