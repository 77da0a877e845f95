package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"clan-missions/models"
	"clan-missions/sui"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const refreshTokenBytes = 32

// Session is returned on login and refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthService struct {
	DB         *gorm.DB
	Tokens     *TokenIssuer
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *TokenIssuer, refreshTTL time.Duration) *AuthService {
	return &AuthService{DB: db, Tokens: tokens, RefreshTTL: refreshTTL, now: time.Now}
}

// Login finds or creates the user for address and starts a fresh session.
func (s *AuthService) Login(ctx context.Context, address string) (*Session, *models.User, error) {
	normalized, err := sui.NormalizeAddress(address)
	if err != nil {
		return nil, nil, ErrInvalidAddress
	}

	var user models.User
	var session *Session
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// insert-or-ignore keeps concurrent first logins from creating two users
		candidate := models.User{ID: uuid.NewString(), WalletAddress: normalized}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			DoNothing: true,
		}).Create(&candidate).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_address = ?", normalized).First(&user).Error; err != nil {
			return err
		}
		var err error
		session, err = s.startSession(tx, &user)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "address": user.WalletAddress}).Info("[Auth] login")
	return session, &user, nil
}

// Refresh exchanges a refresh token for a new session, overwriting the stored token.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidRefreshToken
	}
	var session *Session
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ?", token).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if !stored.ExpiresAt.After(s.now()) {
			return ErrRefreshTokenExpired
		}

		var user models.User
		if err := tx.First(&user, "id = ?", stored.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		var err error
		session, err = s.startSession(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout drops the user's refresh token; outstanding access tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// Me loads the user with created clans, follows and participations.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("CreatedClans").
		Preload("Follows.Clan").
		Preload("Participations.Mission").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// startSession issues an access token and upserts the single refresh-token row.
func (s *AuthService) startSession(tx *gorm.DB, user *models.User) (*Session, error) {
	access, expiresAt, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	row := models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.RefreshTTL),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
