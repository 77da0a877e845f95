package services

import (
	"context"
	"errors"
	"fmt"

	"clan-missions/certificate"
	"clan-missions/models"
	"clan-missions/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CertificateService struct {
	DB       *gorm.DB
	Renderer *certificate.Renderer
	Store    utils.ObjectStore
	Minter   Minter
}

func NewCertificateService(db *gorm.DB, renderer *certificate.Renderer, store utils.ObjectStore, minter Minter) *CertificateService {
	return &CertificateService{DB: db, Renderer: renderer, Store: store, Minter: minter}
}

func certificateKey(userID, missionID string) string {
	return fmt.Sprintf("certificates/%s/%s.png", userID, missionID)
}

// Issue renders, uploads and mints the completion certificate for a finished mission.
func (s *CertificateService) Issue(ctx context.Context, userID, missionID string) (*models.Certificate, error) {
	db := s.DB.WithContext(ctx)

	mission, err := findMission(db, missionID)
	if err != nil {
		return nil, err
	}

	var participation models.MissionParticipation
	if err := db.Where("mission_id = ? AND user_id = ?", mission.ID, userID).First(&participation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionIncomplete
		}
		return nil, err
	}
	if participation.Status != models.ParticipationCompleted {
		return nil, ErrMissionIncomplete
	}

	var existing int64
	if err := db.Model(&models.Certificate{}).
		Where("user_id = ? AND mission_id = ?", userID, mission.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrCertificateExists
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	img, err := s.Renderer.PNG(user.WalletAddress, mission.ID)
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	imageURL, err := s.Store.Put(ctx, certificateKey(userID, mission.ID), "image/png", img)
	if err != nil {
		return nil, storageError("upload certificate", err)
	}

	result, err := s.Minter.MintCertificate(ctx, user.WalletAddress, NFTMetadata{
		Name:        mission.Title,
		Description: fmt.Sprintf("Certificate of completion: %s", mission.Title),
		ImageURL:    imageURL,
	})
	if err != nil {
		return nil, chainError("mint certificate", err)
	}

	cert := models.Certificate{
		ID:        uuid.NewString(),
		UserID:    userID,
		MissionID: mission.ID,
		ImageURL:  imageURL,
		TxDigest:  result.Digest,
		ObjectID:  result.ObjectID,
	}
	if err := db.Create(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.WithFields(log.Fields{"mission_id": mission.ID, "user_id": userID, "digest": result.Digest}).Warn("[Certificates] duplicate issue")
			return nil, ErrCertificateExists
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"certificate_id": cert.ID,
		"mission_id":     mission.ID,
		"user_id":        userID,
		"digest":         cert.TxDigest,
	}).Info("📜 [Certificates] issued")
	return &cert, nil
}

func (s *CertificateService) Get(ctx context.Context, id string) (*models.Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCertificateNotFound
	}
	var cert models.Certificate
	if err := s.DB.WithContext(ctx).First(&cert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// Image re-renders the certificate PNG from its seed; warm entries come from the renderer cache.
func (s *CertificateService) Image(ctx context.Context, id string) ([]byte, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", cert.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Renderer.PNG(user.WalletAddress, cert.MissionID)
}
