// models/wallet_balance.go
package models

import (
	"time"
)

// WalletBalance mirrors a user's on-chain balance for one coin type.
// Table name: wallet_balances
type WalletBalance struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Address         string    `gorm:"type:varchar(66);not null;uniqueIndex:idx_wallet_coin" json:"address"`
	CoinType        string    `gorm:"type:varchar(256);not null;uniqueIndex:idx_wallet_coin" json:"coin_type"`
	TotalBalance    string    `gorm:"type:varchar(40);not null;default:'0'" json:"total_balance"` // u128 as decimal string
	CoinObjectCount int       `gorm:"not null;default:0" json:"coin_object_count"`
	CheckedAt       time.Time `gorm:"not null" json:"checked_at"`
}
