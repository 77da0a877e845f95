package services

import (
	"context"
	"errors"
	"time"

	"clan-missions/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB     *gorm.DB
	Minter Minter
}

func NewBadgeService(db *gorm.DB, minter Minter) *BadgeService {
	return &BadgeService{DB: db, Minter: minter}
}

// SeedCatalog upserts the static badge catalog by code.
func (s *BadgeService) SeedCatalog(ctx context.Context) error {
	for _, entry := range models.BadgeCatalog {
		badge := entry
		badge.ID = uuid.NewString()
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "image_url", "threshold"}),
		}).Create(&badge).Error
		if err != nil {
			return err
		}
	}
	log.WithField("count", len(models.BadgeCatalog)).Info("🎖️ [Badges] catalog seeded")
	return nil
}

// AutoAward checks all badge thresholds for a user after a progress update and
// returns the codes of newly awarded badges.
func (s *BadgeService) AutoAward(ctx context.Context, userID string) ([]string, error) {
	return s.award(s.DB.WithContext(ctx), userID)
}

// award runs on whatever handle it is given so callers inside a transaction see their own writes.
func (s *BadgeService) award(db *gorm.DB, userID string) ([]string, error) {
	progress, err := userProgress(db, userID)
	if err != nil {
		return nil, err
	}

	var catalog []models.BadgeType
	if err := db.Find(&catalog).Error; err != nil {
		return nil, err
	}

	var awarded []string
	for _, badge := range catalog {
		if !meetsThreshold(progress, badge.Threshold) {
			continue
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserBadge{
			ID:          uuid.NewString(),
			UserID:      userID,
			BadgeTypeID: badge.ID,
		})
		if res.Error != nil {
			return awarded, res.Error
		}
		if res.RowsAffected > 0 {
			awarded = append(awarded, badge.Code)
			log.WithFields(log.Fields{"user_id": userID, "badge": badge.Code}).Info("🎖️ Badge awarded")
		}
	}
	return awarded, nil
}

func userProgress(db *gorm.DB, userID string) (map[string]int64, error) {
	var completed, created, followed int64
	if err := db.Model(&models.MissionParticipation{}).
		Where("user_id = ? AND status = ?", userID, models.ParticipationCompleted).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Clan{}).Where("creator_id = ?", userID).Count(&created).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UserClan{}).Where("user_id = ?", userID).Count(&followed).Error; err != nil {
		return nil, err
	}
	return map[string]int64{
		models.ProgressCompletedMissions: completed,
		models.ProgressClansCreated:      created,
		models.ProgressClansFollowed:     followed,
	}, nil
}

// meetsThreshold requires every key; unknown keys never match.
func meetsThreshold(progress, threshold map[string]int64) bool {
	if len(threshold) == 0 {
		return false
	}
	for key, required := range threshold {
		have, ok := progress[key]
		if !ok || have < required {
			return false
		}
	}
	return true
}

func (s *BadgeService) List(ctx context.Context, userID string) ([]models.UserBadge, error) {
	badges := []models.UserBadge{}
	err := s.DB.WithContext(ctx).
		Preload("BadgeType").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

// Mint turns an awarded badge into an on-chain object owned by the user.
func (s *BadgeService) Mint(ctx context.Context, userID, userBadgeID string) (*models.UserBadge, error) {
	db := s.DB.WithContext(ctx)

	var badge models.UserBadge
	if err := db.Preload("BadgeType").
		Where("id = ? AND user_id = ?", userBadgeID, userID).
		First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, err
	}
	if badge.Minted {
		return nil, ErrBadgeMinted
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	meta := NFTMetadata{}
	if badge.BadgeType != nil {
		meta = NFTMetadata{
			Name:        badge.BadgeType.Name,
			Description: badge.BadgeType.Description,
			ImageURL:    badge.BadgeType.ImageURL,
		}
	}
	result, err := s.Minter.MintBadge(ctx, user.WalletAddress, meta)
	if err != nil {
		return nil, chainError("mint badge", err)
	}

	now := time.Now()
	res := db.Model(&badge).
		Where("minted = ?", false).
		Updates(map[string]any{
			"minted":    true,
			"tx_digest": result.Digest,
			"object_id": result.ObjectID,
			"minted_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// a concurrent mint won; this one still produced an object on chain
		log.WithFields(log.Fields{"user_badge_id": badge.ID, "digest": result.Digest}).Warn("[Badges] duplicate mint")
		return nil, ErrBadgeMinted
	}
	badge.Minted = true
	badge.TxDigest = result.Digest
	badge.ObjectID = result.ObjectID
	badge.MintedAt = &now

	log.WithFields(log.Fields{"user_badge_id": badge.ID, "digest": result.Digest}).Info("🎖️ [Badges] minted")
	return &badge, nil
}
