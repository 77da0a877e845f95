package models

import "time"

type Clan struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"type:varchar(96);uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	AvatarURL   string `gorm:"type:text" json:"avatar_url,omitempty"`

	// 🔗 Socials
	WebsiteURL string `gorm:"type:text" json:"website_url,omitempty"`
	TwitterURL string `gorm:"type:text" json:"twitter_url,omitempty"`
	DiscordURL string `gorm:"type:text" json:"discord_url,omitempty"`

	CreatorID string `gorm:"type:uuid;index;not null" json:"creator_id"`
	Creator   *User  `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`

	// Calculated fields (not stored in DB)
	FollowersCount int64 `json:"followers_count" gorm:"-"`

	Timestamps
}

// UserClan is a follow relationship. The composite unique index rejects duplicate follows.
type UserClan struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_clan" json:"user_id"`
	ClanID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_clan;index" json:"clan_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Clan *Clan `json:"clan,omitempty" gorm:"foreignKey:ClanID"`
}
