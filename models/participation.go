package models

import "time"

type ParticipationStatus string

const (
	ParticipationStarted   ParticipationStatus = "started"
	ParticipationCompleted ParticipationStatus = "completed"
)

// MissionParticipation = a user's run through a mission.
type MissionParticipation struct {
	ID              string              `gorm:"primaryKey;type:uuid" json:"id"`
	MissionID       string              `gorm:"type:uuid;not null;uniqueIndex:idx_participation" json:"mission_id"`
	UserID          string              `gorm:"type:uuid;not null;uniqueIndex:idx_participation;index" json:"user_id"`
	Status          ParticipationStatus `gorm:"type:varchar(16);not null;default:'started'" json:"status"`
	CompletedRounds int                 `gorm:"default:0" json:"completed_rounds"`
	StartedAt       time.Time           `gorm:"not null" json:"started_at"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`

	Mission     *Mission          `json:"mission,omitempty" gorm:"foreignKey:MissionID"`
	Completions []RoundCompletion `json:"completions,omitempty" gorm:"foreignKey:ParticipationID"`

	Timestamps
}

// RoundCompletion records one graded submission. Only one passed row may exist per round.
type RoundCompletion struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipationID string    `gorm:"type:uuid;not null;index" json:"participation_id"`
	RoundID         string    `gorm:"type:uuid;not null;index" json:"round_id"`
	Score           int       `json:"score"`
	Total           int       `json:"total"`
	Passed          bool      `gorm:"default:false" json:"passed"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
