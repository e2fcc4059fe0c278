package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus labels a ledger entry as a purchase or a sale.
type TradeStatus string

const (
	StatusBought TradeStatus = "Bought"
	StatusSold   TradeStatus = "Sold"
)

// Transaction is one append-only ledger entry. Shares is signed: positive
// for a buy, negative for a sell. Name and Price are snapshots taken at
// execution time and are never updated afterwards; current holdings are
// always derived by summing Shares, never stored.
type Transaction struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	AccountID  uint            `gorm:"index;not null" json:"account_id"`
	Symbol     string          `gorm:"size:16;index;not null" json:"symbol"`
	Name       string          `gorm:"size:128" json:"name"`
	Shares     int             `gorm:"not null" json:"shares"`
	Price      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	Status     TradeStatus     `gorm:"size:16;not null" json:"status"`
	ExecutedAt time.Time       `gorm:"index;not null" json:"executed_at"`

	Account Account `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
