package services

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"clan-missions/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type UploadService struct {
	Store utils.ObjectStore
}

func NewUploadService(store utils.ObjectStore) *UploadService {
	return &UploadService{Store: store}
}

// Upload stores an image under uploads/<uuid><ext> and returns its public URL.
func (s *UploadService) Upload(ctx context.Context, userID string, fileHeader *multipart.FileHeader) (string, error) {
	if _, err := utils.ImageExtension(fileHeader.Header.Get("Content-Type"), fileHeader.Filename); err != nil {
		return "", invalid("%v", err)
	}
	body, err := utils.ReadUpload(fileHeader, utils.MaxImageUploadSize)
	if err != nil {
		if errors.Is(err, utils.ErrFileTooLarge) {
			return "", newStatusError(http.StatusRequestEntityTooLarge, err.Error())
		}
		return "", invalid("%v", err)
	}

	contentType, ext, err := utils.SniffImage(body, fileHeader.Filename)
	if err != nil {
		return "", invalid("%v", err)
	}

	key := "uploads/" + uuid.NewString() + ext
	url, err := s.Store.Put(ctx, key, contentType, body)
	if err != nil {
		return "", storageError("upload", err)
	}
	log.WithFields(log.Fields{"user_id": userID, "key": key, "size": len(body)}).Info("📤 [Uploads] stored")
	return url, nil
}
