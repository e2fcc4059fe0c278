package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered user plus their simulated cash balance.
// Cash is only ever mutated by the trade engine and the password flow
// never touches it; accounts are never deleted.
type Account struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string          `gorm:"size:255;not null" json:"-"`
	Cash         decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"-"`
}
