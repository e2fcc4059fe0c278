package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stocksim/models"
	"stocksim/quotes"

	"github.com/shopspring/decimal"
)

// Engine validates and executes buy/sell requests against the store and
// the quote provider. Trades on the same account are serialized by a
// per-account mutex; the cash update and the ledger append of one trade
// commit in a single database transaction.
type Engine struct {
	store  *Store
	quotes quotes.Provider

	locks sync.Map // account id -> *sync.Mutex
}

func NewEngine(store *Store, provider quotes.Provider) *Engine {
	return &Engine{store: store, quotes: provider}
}

// TradeResult reports an executed trade and the resulting cash balance.
type TradeResult struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int             `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
	Cash   decimal.Decimal `json:"cash"`
}

func (e *Engine) accountLock(accountID uint) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// resolveQuote maps provider failures onto the engine's error kinds.
func (e *Engine) resolveQuote(ctx context.Context, symbol string) (quotes.Quote, error) {
	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrUnknownSymbol) {
			return quotes.Quote{}, ErrUnknownSymbol
		}
		return quotes.Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return q, nil
}

// Buy purchases shares at the current quoted price. The cost is rounded to
// two decimal places before it is compared against the balance or stored.
func (e *Engine) Buy(ctx context.Context, accountID uint, symbol string, shares int) (*TradeResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrUnknownSymbol
	}
	if shares <= 0 {
		return nil, ErrInvalidShareCount
	}

	q, err := e.resolveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(int64(shares))).Round(2)

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	var result *TradeResult
	err = e.store.Transaction(ctx, func(tx *Store) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if cost.GreaterThan(acct.Cash) {
			return ErrInsufficientFunds
		}

		balance := acct.Cash.Sub(cost)
		if err := tx.UpdateCash(ctx, accountID, balance); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, &models.Transaction{
			AccountID:  accountID,
			Symbol:     q.Symbol,
			Name:       q.Name,
			Shares:     shares,
			Price:      q.Price,
			Status:     models.StatusBought,
			ExecutedAt: time.Now(),
		}); err != nil {
			return err
		}

		result = &TradeResult{
			Symbol: q.Symbol,
			Name:   q.Name,
			Shares: shares,
			Price:  q.Price,
			Total:  cost,
			Cash:   balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Sell disposes of shares at the current quoted price. The account must
// hold at least the requested number of shares, derived by summing the
// signed share counts in its ledger.
func (e *Engine) Sell(ctx context.Context, accountID uint, symbol string, shares int) (*TradeResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrUnknownSymbol
	}
	if shares <= 0 {
		return nil, ErrInvalidShareCount
	}

	q, err := e.resolveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(int64(shares))).Round(2)

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	var result *TradeResult
	err = e.store.Transaction(ctx, func(tx *Store) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		held, traded, err := tx.SumShares(ctx, accountID, q.Symbol)
		if err != nil {
			return err
		}
		if !traded || held == 0 {
			return ErrNoSuchHolding
		}
		if shares > held {
			return ErrInsufficientShares
		}

		balance := acct.Cash.Add(proceeds)
		if err := tx.UpdateCash(ctx, accountID, balance); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, &models.Transaction{
			AccountID:  accountID,
			Symbol:     q.Symbol,
			Name:       q.Name,
			Shares:     -shares,
			Price:      q.Price,
			Status:     models.StatusSold,
			ExecutedAt: time.Now(),
		}); err != nil {
			return err
		}

		result = &TradeResult{
			Symbol: q.Symbol,
			Name:   q.Name,
			Shares: -shares,
			Price:  q.Price,
			Total:  proceeds,
			Cash:   balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
