package ledger

import (
	"context"
	"errors"
	"fmt"

	"stocksim/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the durable record of accounts and the append-only transaction
// log. Cash updates and ledger appends belonging to one trade must run
// through Transaction so they commit or roll back together.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Transaction runs fn against a store bound to one database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// CreateAccount registers a username with its password hash and opening
// cash balance.
func (s *Store) CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.Account, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateUsername
	}

	acct := models.Account{
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
	}
	if err := s.DB.WithContext(ctx).Create(&acct).Error; err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acct, nil
}

func (s *Store) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	var acct models.Account
	if err := s.DB.WithContext(ctx).First(&acct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return &acct, nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acct models.Account
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %q: %w", username, err)
	}
	return &acct, nil
}

// UpdateCash overwrites the account's cash balance.
func (s *Store) UpdateCash(ctx context.Context, id uint, balance decimal.Decimal) error {
	res := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("cash", balance)
	if res.Error != nil {
		return fmt.Errorf("update cash: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored credential hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AppendTransaction writes one immutable ledger entry.
func (s *Store) AppendTransaction(ctx context.Context, entry *models.Transaction) error {
	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the account's full ledger in insertion order.
func (s *Store) ListTransactions(ctx context.Context, accountID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListTransactionsForSymbol returns the account's ledger entries for one
// symbol in insertion order.
func (s *Store) ListTransactionsForSymbol(ctx context.Context, accountID uint, symbol string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.DB.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Order("id ASC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", symbol, err)
	}
	return txs, nil
}

// SumShares returns the net held shares for a symbol and whether the
// symbol was ever traded by the account.
func (s *Store) SumShares(ctx context.Context, accountID uint, symbol string) (shares int, traded bool, err error) {
	var row struct {
		Total *int
		N     int64
	}
	err = s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("SUM(shares) AS total, COUNT(*) AS n").
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Scan(&row).Error
	if err != nil {
		return 0, false, fmt.Errorf("sum shares for %s: %w", symbol, err)
	}
	if row.Total != nil {
		shares = *row.Total
	}
	return shares, row.N > 0, nil
}

// HoldingRow is one group of the ledger's group-by-symbol aggregation.
// A symbol that was fully sold off still produces a row with zero total
// shares, matching what the underlying GROUP BY returns.
type HoldingRow struct {
	Symbol      string
	Name        string
	TotalShares int
}

// HoldingRows aggregates the account's ledger into per-symbol share totals.
func (s *Store) HoldingRows(ctx context.Context, accountID uint) ([]HoldingRow, error) {
	var rows []HoldingRow
	if err := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("symbol, MAX(name) AS name, SUM(shares) AS total_shares").
		Where("account_id = ?", accountID).
		Group("symbol").
		Order("symbol ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate holdings: %w", err)
	}
	return rows, nil
}
