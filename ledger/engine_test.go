package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"stocksim/models"
	"stocksim/quotes"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvider serves quotes from a fixed price table.
type fakeProvider struct {
	mu     sync.Mutex
	prices map[string]quotes.Quote
	calls  int
	err    error
}

func (f *fakeProvider) Lookup(_ context.Context, symbol string) (quotes.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return quotes.Quote{}, f.err
	}
	q, ok := f.prices[symbol]
	if !ok {
		return quotes.Quote{}, quotes.ErrUnknownSymbol
	}
	return q, nil
}

func (f *fakeProvider) setPrice(symbol, name, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prices == nil {
		f.prices = map[string]quotes.Quote{}
	}
	f.prices[symbol] = quotes.Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.RequireFromString(price),
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Account{}, &models.Transaction{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T) (*Engine, *Store, *fakeProvider) {
	t.Helper()
	store := NewStore(newTestDB(t))
	provider := &fakeProvider{}
	return NewEngine(store, provider), store, provider
}

func newTestAccount(t *testing.T, store *Store, cash string) *models.Account {
	t.Helper()
	acct, err := store.CreateAccount(context.Background(), "alice", "hash", decimal.RequireFromString(cash))
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}

func requireCash(t *testing.T, store *Store, accountID uint, want string) {
	t.Helper()
	acct, err := store.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !acct.Cash.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("cash = %s, want %s", acct.Cash, want)
	}
}

func requireLedgerLen(t *testing.T, store *Store, accountID uint, want int) {
	t.Helper()
	txs, err := store.ListTransactions(context.Background(), accountID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != want {
		t.Fatalf("ledger has %d entries, want %d", len(txs), want)
	}
}

func TestBuyRecordsTransactionAndDebitsCash(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	result, err := engine.Buy(context.Background(), acct.ID, "aapl", 10)
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	if result.Symbol != "AAPL" || result.Shares != 10 {
		t.Errorf("result = %+v, want AAPL +10", result)
	}
	if !result.Total.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("total = %s, want 1500.00", result.Total)
	}
	requireCash(t, store, acct.ID, "8500.00")

	txs, err := store.ListTransactions(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(txs))
	}
	entry := txs[0]
	if entry.Shares != 10 || entry.Status != models.StatusBought || entry.Name != "Apple Inc" {
		t.Errorf("entry = %+v, want +10 Bought Apple Inc", entry)
	}
	if !entry.Price.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("entry price = %s, want 150.00", entry.Price)
	}
}

func TestBuyInvalidShareCount(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	for _, shares := range []int{0, -5} {
		if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", shares); !errors.Is(err, ErrInvalidShareCount) {
			t.Errorf("Buy(shares=%d) error = %v, want ErrInvalidShareCount", shares, err)
		}
	}
	// rejected before any provider or store access
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
	requireCash(t, store, acct.ID, "10000.00")
	requireLedgerLen(t, store, acct.ID, 0)
}

func TestBuyUnknownSymbol(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "NOPE", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Buy(NOPE) error = %v, want ErrUnknownSymbol", err)
	}
	if _, err := engine.Buy(context.Background(), acct.ID, "  ", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Buy(blank) error = %v, want ErrUnknownSymbol", err)
	}
	requireLedgerLen(t, store, acct.ID, 0)
}

func TestBuyInsufficientFunds(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "100.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Buy() error = %v, want ErrInsufficientFunds", err)
	}
	requireCash(t, store, acct.ID, "100.00")
	requireLedgerLen(t, store, acct.ID, 0)
}

func TestBuyQuoteUnavailable(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.err = quotes.ErrUnavailable
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 1); !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("Buy() error = %v, want ErrQuoteUnavailable", err)
	}
	requireLedgerLen(t, store, acct.ID, 0)
}

func TestSellNoSuchHolding(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Sell(context.Background(), acct.ID, "AAPL", 1); !errors.Is(err, ErrNoSuchHolding) {
		t.Fatalf("Sell() error = %v, want ErrNoSuchHolding", err)
	}
	requireCash(t, store, acct.ID, "10000.00")
	requireLedgerLen(t, store, acct.ID, 0)
}

func TestSellInsufficientShares(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 3); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := engine.Sell(context.Background(), acct.ID, "AAPL", 4); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("Sell() error = %v, want ErrInsufficientShares", err)
	}
	requireCash(t, store, acct.ID, "9550.00")
	requireLedgerLen(t, store, acct.ID, 1)
}

func TestSellAfterFullDisposalFailsNoSuchHolding(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 2); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := engine.Sell(context.Background(), acct.ID, "AAPL", 2); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	// net shares are back to zero, so another sell has nothing to dispose
	if _, err := engine.Sell(context.Background(), acct.ID, "AAPL", 1); !errors.Is(err, ErrNoSuchHolding) {
		t.Fatalf("Sell() error = %v, want ErrNoSuchHolding", err)
	}
}

func TestBuySellScenario(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "150.00")
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 10); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	requireCash(t, store, acct.ID, "8500.00")

	provider.setPrice("AAPL", "Apple Inc", "160.00")
	result, err := engine.Sell(context.Background(), acct.ID, "AAPL", 4)
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	if !result.Total.Equal(decimal.RequireFromString("640.00")) {
		t.Errorf("proceeds = %s, want 640.00", result.Total)
	}
	if result.Shares != -4 {
		t.Errorf("result shares = %d, want -4", result.Shares)
	}
	requireCash(t, store, acct.ID, "9140.00")

	txs, err := store.ListTransactions(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("ledger has %d entries, want 2", len(txs))
	}
	if txs[1].Shares != -4 || txs[1].Status != models.StatusSold {
		t.Errorf("second entry = %+v, want -4 Sold", txs[1])
	}
	if !txs[0].Price.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("buy price = %s, want the 150.00 snapshot untouched", txs[0].Price)
	}

	held, traded, err := store.SumShares(context.Background(), acct.ID, "AAPL")
	if err != nil {
		t.Fatalf("sum shares: %v", err)
	}
	if !traded || held != 6 {
		t.Errorf("held = %d (traded=%v), want 6", held, traded)
	}
}

func TestRoundTripRestoresCash(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("NFLX", "Netflix Inc", "423.17")
	acct := newTestAccount(t, store, "10000.00")

	if _, err := engine.Buy(context.Background(), acct.ID, "NFLX", 10); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := engine.Sell(context.Background(), acct.ID, "NFLX", 10); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	requireCash(t, store, acct.ID, "10000.00")
	held, _, err := store.SumShares(context.Background(), acct.ID, "NFLX")
	if err != nil {
		t.Fatalf("sum shares: %v", err)
	}
	if held != 0 {
		t.Errorf("held = %d, want 0", held)
	}
}

func TestCostRoundsPerMultiplication(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	// 3 * 10.333 = 30.999, rounds to 31.00 before comparison and storage
	provider.setPrice("PENNY", "Penny Corp", "10.333")
	acct := newTestAccount(t, store, "31.00")

	result, err := engine.Buy(context.Background(), acct.ID, "PENNY", 3)
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if !result.Total.Equal(decimal.RequireFromString("31.00")) {
		t.Errorf("cost = %s, want 31.00", result.Total)
	}
	requireCash(t, store, acct.ID, "0.00")
}

func TestConcurrentBuysSameAccount(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "100.00")
	acct := newTestAccount(t, store, "10000.00")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Buy(context.Background(), acct.ID, "AAPL", 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Buy() error = %v", err)
	}

	// no lost updates: every trade debited exactly once
	requireCash(t, store, acct.ID, "9000.00")
	requireLedgerLen(t, store, acct.ID, n)
}

func TestConcurrentTradesDifferentAccounts(t *testing.T) {
	engine, store, provider := newTestEngine(t)
	provider.setPrice("AAPL", "Apple Inc", "100.00")

	accounts := make([]*models.Account, 4)
	for i := range accounts {
		acct, err := store.CreateAccount(context.Background(),
			fmt.Sprintf("user%d", i), "hash", decimal.RequireFromString("1000.00"))
		if err != nil {
			t.Fatalf("create account: %v", err)
		}
		accounts[i] = acct
	}

	var wg sync.WaitGroup
	for _, acct := range accounts {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := engine.Buy(context.Background(), id, "AAPL", 2); err != nil {
				t.Errorf("Buy(account %d) error = %v", id, err)
			}
		}(acct.ID)
	}
	wg.Wait()

	for _, acct := range accounts {
		requireCash(t, store, acct.ID, "800.00")
		requireLedgerLen(t, store, acct.ID, 1)
	}
}
