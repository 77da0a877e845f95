// models/mission.go
package models

import (
	"time"
)

type MissionStatus string

const (
	MissionStatusDraft     MissionStatus = "draft"
	MissionStatusScheduled MissionStatus = "scheduled"
	MissionStatusPublished MissionStatus = "published"
	MissionStatusArchived  MissionStatus = "archived"
)

func (s MissionStatus) Valid() bool {
	switch s {
	case MissionStatusDraft, MissionStatusScheduled, MissionStatusPublished, MissionStatusArchived:
		return true
	}
	return false
}

const (
	QuestTypeQuiz = "quiz"
	QuestTypeTask = "task"
)

// Mission is a learning unit owned by a clan: Mission → Rounds → Quest → Quizzes, plus a Reward per round.
type Mission struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	ClanID    string        `gorm:"type:uuid;index;not null" json:"clan_id"`
	CreatorID string        `gorm:"type:uuid;index;not null" json:"creator_id"`
	Title     string        `gorm:"not null" json:"title"`
	Brief     string        `gorm:"type:text" json:"brief"`
	ImageURL  string        `gorm:"type:text" json:"image_url,omitempty"`
	Status    MissionStatus `gorm:"type:varchar(16);not null;default:'published';index" json:"status"`
	PublishAt *time.Time    `json:"publish_at,omitempty"` // only used if scheduled

	// Relationships
	Clan   *Clan          `json:"clan,omitempty" gorm:"foreignKey:ClanID"`
	Rounds []MissionRound `json:"rounds,omitempty" gorm:"foreignKey:MissionID"`

	Timestamps
}

type MissionRound struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	MissionID   string `gorm:"type:uuid;not null;index" json:"mission_id"`
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `gorm:"column:sort_order;default:0" json:"sort_order"`

	Quest  *Quest         `json:"quest,omitempty" gorm:"foreignKey:RoundID"`
	Reward *MissionReward `json:"reward,omitempty" gorm:"foreignKey:RoundID"`

	Timestamps
}

type Quest struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	RoundID     string `gorm:"type:uuid;not null;uniqueIndex" json:"round_id"`
	Type        string `gorm:"type:varchar(16);not null;default:'quiz'" json:"type"`
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Quizzes []Quiz `json:"quizzes,omitempty" gorm:"foreignKey:QuestID"`
}

type Quiz struct {
	ID            string   `gorm:"primaryKey;type:uuid" json:"id"`
	QuestID       string   `gorm:"type:uuid;not null;index" json:"quest_id"`
	Question      string   `gorm:"type:text;not null" json:"question"`
	Options       []string `gorm:"type:text;serializer:json" json:"options"`
	CorrectOption *int     `gorm:"not null" json:"correct_option,omitempty"` // nil in public views
	SortOrder     int      `gorm:"column:sort_order;default:0" json:"sort_order"`
}

// MissionReward is paid per passed round, in the token's smallest unit.
type MissionReward struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	RoundID     string `gorm:"type:uuid;not null;uniqueIndex" json:"round_id"`
	Amount      uint64 `gorm:"not null;default:0" json:"amount"`
	TokenSymbol string `gorm:"type:varchar(16);not null;default:'LEARN'" json:"token_symbol"`
}
