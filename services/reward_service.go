// services/reward_service.go
package services

import (
	"context"
	"errors"
	"time"

	"clan-missions/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RewardService struct {
	DB     *gorm.DB
	Minter Minter
}

func NewRewardService(db *gorm.DB, minter Minter) *RewardService {
	return &RewardService{DB: db, Minter: minter}
}

// ListForUser filters by status: "pending", "claimed", or "" / "all" for everything.
func (s *RewardService) ListForUser(ctx context.Context, userID, status string) ([]models.UserReward, error) {
	query := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	switch models.RewardStatus(status) {
	case "", "all":
	case models.RewardStatusPending, models.RewardStatusClaimed:
		query = query.Where("status = ?", status)
	default:
		return nil, invalid("status must be pending, claimed or all")
	}

	rewards := []models.UserReward{}
	if err := query.Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// Claim mints the reward amount to the owner's wallet. A chain failure leaves it pending.
func (s *RewardService) Claim(ctx context.Context, userID, rewardID string) (*models.UserReward, error) {
	db := s.DB.WithContext(ctx)

	var reward models.UserReward
	if err := db.Where("id = ? AND user_id = ?", rewardID, userID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if reward.Status == models.RewardStatusClaimed {
		return nil, ErrRewardClaimed
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result, err := s.Minter.MintToken(ctx, user.WalletAddress, reward.Amount)
	if err != nil {
		log.WithError(err).WithField("reward_id", reward.ID).Error("❌ [Rewards] claim failed")
		return nil, chainError("mint token", err)
	}

	now := time.Now()
	res := db.Model(&reward).
		Where("status = ?", models.RewardStatusPending).
		Updates(map[string]any{
			"status":     models.RewardStatusClaimed,
			"tx_digest":  result.Digest,
			"claimed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		log.WithFields(log.Fields{"reward_id": reward.ID, "digest": result.Digest}).Warn("[Rewards] claimed concurrently")
		return nil, ErrRewardClaimed
	}
	reward.Status = models.RewardStatusClaimed
	reward.TxDigest = result.Digest
	reward.ClaimedAt = &now

	log.WithFields(log.Fields{
		"reward_id": reward.ID,
		"user_id":   userID,
		"amount":    reward.Amount,
		"digest":    result.Digest,
	}).Info("💰 [Rewards] claimed")
	return &reward, nil
}
