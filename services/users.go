package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"clan-missions/models"

	"gorm.io/gorm"
)

const (
	defaultUserSearchLimit = 20
	maxUserSearchLimit     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

var ErrUsernameTaken = newStatusError(http.StatusConflict, "username already taken")

// UserSummary is the public shape returned by search.
type UserSummary struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	Username      string `json:"username,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// ProfilePatch updates only the fields that are set.
type ProfilePatch struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Search matches username or wallet address, case-insensitively.
func (s *UserService) Search(ctx context.Context, q string, limit int) ([]UserSummary, error) {
	if limit <= 0 {
		limit = defaultUserSearchLimit
	}
	if limit > maxUserSearchLimit {
		limit = maxUserSearchLimit
	}

	db := s.DB.WithContext(ctx).Model(&models.User{}).Order("created_at ASC").Limit(limit)
	if q = strings.TrimSpace(q); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(wallet_address) LIKE ?", term, term)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{ID: u.ID, WalletAddress: u.WalletAddress, Username: u.Username, AvatarURL: u.AvatarURL}
	}
	return res, nil
}

// UpdateProfile sets username and/or avatar. An empty username clears it.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Username != nil {
		name := strings.ToLower(strings.TrimSpace(*patch.Username))
		if name != "" && !usernamePattern.MatchString(name) {
			return nil, invalid("username must be 3-32 characters of a-z, 0-9 or _")
		}
		updates["username"] = name
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*patch.AvatarURL)
	}

	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if name, ok := updates["username"].(string); ok && name != "" {
			var taken int64
			if err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", name, userID).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return ErrUsernameTaken
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	if v, ok := updates["username"].(string); ok {
		user.Username = v
	}
	if v, ok := updates["avatar_url"].(string); ok {
		user.AvatarURL = v
	}
	return &user, nil
}
