package models

import "time"

// Certificate proves completion of a mission; one per user and mission.
type Certificate struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_certificate" json:"user_id"`
	MissionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_certificate" json:"mission_id"`
	ImageURL  string    `gorm:"type:text" json:"image_url"`
	TxDigest  string    `gorm:"type:varchar(64)" json:"tx_digest"`
	ObjectID  string    `gorm:"type:varchar(66)" json:"object_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
