// services/clan_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"clan-missions/models"
	"clan-missions/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	minClanNameLen = 2
	maxClanNameLen = 64
	maxClanSlugLen = 96 // clans.slug is varchar(96)
)

type ClanService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewClanService(db *gorm.DB, badges *BadgeService) *ClanService {
	return &ClanService{DB: db, Badges: badges}
}

type ClanInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
	WebsiteURL  string `json:"website_url"`
	TwitterURL  string `json:"twitter_url"`
	DiscordURL  string `json:"discord_url"`
}

// ClanPatch carries only the fields present in a PATCH body.
type ClanPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	AvatarURL   *string `json:"avatar_url"`
	WebsiteURL  *string `json:"website_url"`
	TwitterURL  *string `json:"twitter_url"`
	DiscordURL  *string `json:"discord_url"`
}

func clanName(raw string) (name, clanSlug string, err error) {
	// NFC so "Café" typed two ways is one name
	name = norm.NFC.String(strings.TrimSpace(raw))
	if n := utf8.RuneCountInString(name); n < minClanNameLen || n > maxClanNameLen {
		return "", "", invalid("clan name must be between %d and %d characters", minClanNameLen, maxClanNameLen)
	}
	clanSlug = slug.Make(name)
	// transliterated scripts can grow well past the rune count; slugs are ASCII so bytes are safe to cut
	if len(clanSlug) > maxClanSlugLen {
		clanSlug = strings.TrimRight(clanSlug[:maxClanSlugLen], "-")
	}
	if clanSlug == "" {
		return "", "", invalid("clan name must contain letters or digits")
	}
	return name, clanSlug, nil
}

// Create inserts the clan and makes the creator its first follower.
func (s *ClanService) Create(ctx context.Context, creatorID string, in ClanInput) (*models.Clan, error) {
	name, clanSlug, err := clanName(in.Name)
	if err != nil {
		return nil, err
	}

	clan := models.Clan{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        clanSlug,
		Description: strings.TrimSpace(in.Description),
		AvatarURL:   in.AvatarURL,
		WebsiteURL:  in.WebsiteURL,
		TwitterURL:  in.TwitterURL,
		DiscordURL:  in.DiscordURL,
		CreatorID:   creatorID,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := nameTaken(tx, name, clanSlug, ""); err != nil {
			return err
		} else if taken {
			return ErrClanNameTaken
		}
		if err := tx.Create(&clan).Error; err != nil {
			return err
		}
		follow := models.UserClan{ID: uuid.NewString(), UserID: creatorID, ClanID: clan.ID}
		return tx.Create(&follow).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrClanNameTaken
		}
		return nil, err
	}
	clan.FollowersCount = 1

	log.WithFields(log.Fields{"clan_id": clan.ID, "slug": clan.Slug, "creator_id": creatorID}).Info("🏰 [Clans] created")
	s.awardBadges(ctx, creatorID)
	return &clan, nil
}

// List pages through clans newest first, optionally filtered by a name substring.
func (s *ClanService) List(ctx context.Context, page utils.Page, search string) (utils.Paginated[models.Clan], error) {
	query := s.DB.WithContext(ctx).Model(&models.Clan{})
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Paginated[models.Clan]{}, err
	}

	var clans []models.Clan
	if err := query.Preload("Creator").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&clans).Error; err != nil {
		return utils.Paginated[models.Clan]{}, err
	}
	if err := s.fillFollowerCounts(ctx, clans); err != nil {
		return utils.Paginated[models.Clan]{}, err
	}
	return utils.NewPaginated(clans, page, total), nil
}

// Get resolves a clan by id or slug.
func (s *ClanService) Get(ctx context.Context, idOrSlug string) (*models.Clan, error) {
	clan, err := findClan(s.DB.WithContext(ctx).Preload("Creator"), idOrSlug)
	if err != nil {
		return nil, err
	}
	clans := []models.Clan{*clan}
	if err := s.fillFollowerCounts(ctx, clans); err != nil {
		return nil, err
	}
	return &clans[0], nil
}

func (s *ClanService) Update(ctx context.Context, userID, idOrSlug string, patch ClanPatch) (*models.Clan, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clan, err := findClan(tx, idOrSlug)
		if err != nil {
			return err
		}
		if clan.CreatorID != userID {
			return ErrForbidden
		}
		idOrSlug = clan.ID

		updates := map[string]any{}
		if patch.Name != nil {
			name, clanSlug, err := clanName(*patch.Name)
			if err != nil {
				return err
			}
			if taken, err := nameTaken(tx, name, clanSlug, clan.ID); err != nil {
				return err
			} else if taken {
				return ErrClanNameTaken
			}
			updates["name"] = name
			updates["slug"] = clanSlug
		}
		if patch.Description != nil {
			updates["description"] = strings.TrimSpace(*patch.Description)
		}
		if patch.AvatarURL != nil {
			updates["avatar_url"] = *patch.AvatarURL
		}
		if patch.WebsiteURL != nil {
			updates["website_url"] = *patch.WebsiteURL
		}
		if patch.TwitterURL != nil {
			updates["twitter_url"] = *patch.TwitterURL
		}
		if patch.DiscordURL != nil {
			updates["discord_url"] = *patch.DiscordURL
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(clan).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrClanNameTaken
		}
		return nil, err
	}
	return s.Get(ctx, idOrSlug)
}

// Delete removes the clan with its follows and every mission it owns.
func (s *ClanService) Delete(ctx context.Context, userID, idOrSlug string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clan, err := findClan(tx, idOrSlug)
		if err != nil {
			return err
		}
		if clan.CreatorID != userID {
			return ErrForbidden
		}

		var missionIDs []string
		if err := tx.Model(&models.Mission{}).Where("clan_id = ?", clan.ID).Pluck("id", &missionIDs).Error; err != nil {
			return err
		}
		if err := deleteMissionTrees(tx, missionIDs); err != nil {
			return err
		}
		if err := tx.Where("clan_id = ?", clan.ID).Delete(&models.UserClan{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(clan).Error; err != nil {
			return err
		}
		log.WithFields(log.Fields{"clan_id": clan.ID, "missions": len(missionIDs)}).Info("🗑️ [Clans] deleted")
		return nil
	})
}

func (s *ClanService) Follow(ctx context.Context, userID, idOrSlug string) (*models.UserClan, error) {
	follow := models.UserClan{ID: uuid.NewString(), UserID: userID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clan, err := findClan(tx, idOrSlug)
		if err != nil {
			return err
		}
		follow.ClanID = clan.ID

		var count int64
		if err := tx.Model(&models.UserClan{}).
			Where("user_id = ? AND clan_id = ?", userID, clan.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyFollowing
		}
		return tx.Create(&follow).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}
	s.awardBadges(ctx, userID)
	return &follow, nil
}

func (s *ClanService) Unfollow(ctx context.Context, userID, idOrSlug string) error {
	db := s.DB.WithContext(ctx)
	clan, err := findClan(db, idOrSlug)
	if err != nil {
		return err
	}
	res := db.Where("user_id = ? AND clan_id = ?", userID, clan.ID).Delete(&models.UserClan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// Followers pages through users following the clan, most recent follow first.
func (s *ClanService) Followers(ctx context.Context, idOrSlug string, page utils.Page) (utils.Paginated[models.User], error) {
	db := s.DB.WithContext(ctx)
	clan, err := findClan(db, idOrSlug)
	if err != nil {
		return utils.Paginated[models.User]{}, err
	}

	query := db.Model(&models.User{}).
		Joins("JOIN user_clans ON user_clans.user_id = users.id").
		Where("user_clans.clan_id = ?", clan.ID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Paginated[models.User]{}, err
	}
	var users []models.User
	if err := query.Order("user_clans.created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error; err != nil {
		return utils.Paginated[models.User]{}, err
	}
	return utils.NewPaginated(users, page, total), nil
}

// FollowedBy lists the clans a user follows.
func (s *ClanService) FollowedBy(ctx context.Context, userID string) ([]models.Clan, error) {
	var clans []models.Clan
	err := s.DB.WithContext(ctx).
		Joins("JOIN user_clans ON user_clans.clan_id = clans.id").
		Where("user_clans.user_id = ?", userID).
		Order("user_clans.created_at DESC").
		Find(&clans).Error
	if err != nil {
		return nil, err
	}
	if err := s.fillFollowerCounts(ctx, clans); err != nil {
		return nil, err
	}
	if clans == nil {
		clans = []models.Clan{}
	}
	return clans, nil
}

func (s *ClanService) fillFollowerCounts(ctx context.Context, clans []models.Clan) error {
	if len(clans) == 0 {
		return nil
	}
	ids := make([]string, len(clans))
	for i := range clans {
		ids[i] = clans[i].ID
	}

	var rows []struct {
		ClanID string
		Count  int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.UserClan{}).
		Select("clan_id, COUNT(*) AS count").
		Where("clan_id IN ?", ids).
		Group("clan_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ClanID] = r.Count
	}
	for i := range clans {
		clans[i].FollowersCount = counts[clans[i].ID]
	}
	return nil
}

// awardBadges is best effort; a failed evaluation is picked up on the next progress event.
func (s *ClanService) awardBadges(ctx context.Context, userID string) {
	if s.Badges == nil {
		return
	}
	if _, err := s.Badges.AutoAward(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("[Badges] auto-award failed")
	}
}

// findClan looks up by primary key when the value parses as a UUID, otherwise by slug.
func findClan(db *gorm.DB, idOrSlug string) (*models.Clan, error) {
	var clan models.Clan
	var err error
	if _, perr := uuid.Parse(idOrSlug); perr == nil {
		err = db.First(&clan, "id = ?", idOrSlug).Error
	} else {
		err = db.First(&clan, "slug = ?", strings.ToLower(idOrSlug)).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClanNotFound
		}
		return nil, err
	}
	return &clan, nil
}

func nameTaken(tx *gorm.DB, name, clanSlug, exceptID string) (bool, error) {
	query := tx.Model(&models.Clan{}).Where("(slug = ? OR LOWER(name) = ?)", clanSlug, strings.ToLower(name))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
