package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Clan{},
		&UserClan{},
		&Mission{},
		&MissionRound{},
		&Quest{},
		&Quiz{},
		&MissionReward{},
		&MissionParticipation{},
		&RoundCompletion{},
		&UserReward{},
		&BadgeType{},
		&UserBadge{},
		&Certificate{},
		&WalletBalance{},
	)
}
