package models

import (
	"time"
)

// BadgeType: static catalog entry, seeded at startup by code
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string           `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"` // e.g., "FIRST_MISSION"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	ImageURL    string           `gorm:"type:text" json:"image_url"`
	Threshold   map[string]int64 `gorm:"type:text;serializer:json" json:"threshold"` // e.g., {"completed_missions": 5}
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance, optionally minted on chain
type UserBadge struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeTypeID string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"badge_type_id"`
	AwardedAt   time.Time  `gorm:"autoCreateTime" json:"awarded_at"`
	Minted      bool       `gorm:"default:false" json:"minted"`
	TxDigest    string     `gorm:"type:varchar(64)" json:"tx_digest,omitempty"`
	ObjectID    string     `gorm:"type:varchar(66)" json:"object_id,omitempty"`
	MintedAt    *time.Time `json:"minted_at,omitempty"`

	BadgeType *BadgeType `json:"badge_type,omitempty" gorm:"foreignKey:BadgeTypeID"`
}

// Progress keys understood by badge thresholds
const (
	ProgressCompletedMissions = "completed_missions"
	ProgressClansCreated      = "clans_created"
	ProgressClansFollowed     = "clans_followed"
)

// BadgeCatalog is upserted by code on startup.
var BadgeCatalog = []BadgeType{
	{
		Code:        "FIRST_MISSION",
		Name:        "First Steps",
		Description: "Completed your first mission",
		Threshold:   map[string]int64{ProgressCompletedMissions: 1},
	},
	{
		Code:        "MISSION_VETERAN",
		Name:        "Mission Veteran",
		Description: "Completed five missions",
		Threshold:   map[string]int64{ProgressCompletedMissions: 5},
	},
	{
		Code:        "CLAN_FOUNDER",
		Name:        "Clan Founder",
		Description: "Founded a clan",
		Threshold:   map[string]int64{ProgressClansCreated: 1},
	},
	{
		Code:        "SOCIAL",
		Name:        "Social Butterfly",
		Description: "Following three clans",
		Threshold:   map[string]int64{ProgressClansFollowed: 3},
	},
}
