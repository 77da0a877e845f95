package models

import (
	"time"
)

// User is identified by the Sui wallet address it logged in with.
type User struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string `gorm:"type:varchar(66);uniqueIndex;not null" json:"wallet_address"`
	Username      string `gorm:"type:varchar(64)" json:"username,omitempty"`
	AvatarURL     string `gorm:"type:text" json:"avatar_url,omitempty"`

	// Relationships
	CreatedClans   []Clan                 `json:"created_clans,omitempty" gorm:"foreignKey:CreatorID"`
	Follows        []UserClan             `json:"follows,omitempty" gorm:"foreignKey:UserID"`
	Participations []MissionParticipation `json:"participations,omitempty" gorm:"foreignKey:UserID"`

	Timestamps
}

// RefreshToken is the single long-lived credential a user holds.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	Timestamps
}

// Timestamps adds GORM auto-times. Records are hard-deleted so unique indexes stay meaningful.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
