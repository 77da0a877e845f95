package models

import (
	"time"
)

// RewardStatus tracks whether the tokens were minted to the user yet
type RewardStatus string

const (
	RewardStatusPending RewardStatus = "pending"
	RewardStatusClaimed RewardStatus = "claimed"
)

// UserReward is a token reward earned by passing a mission round.
type UserReward struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string       `gorm:"type:uuid;not null;uniqueIndex:idx_reward_user_round" json:"user_id"`
	MissionID   string       `gorm:"type:uuid;not null;index" json:"mission_id"`
	RoundID     string       `gorm:"type:uuid;not null;uniqueIndex:idx_reward_user_round" json:"round_id"`
	Amount      uint64       `gorm:"not null" json:"amount"`
	TokenSymbol string       `gorm:"type:varchar(16);not null" json:"token_symbol"`
	Status      RewardStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	TxDigest    string       `gorm:"type:varchar(64)" json:"tx_digest,omitempty"`
	ClaimedAt   *time.Time   `json:"claimed_at,omitempty"`

	Timestamps
}
