package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxImageUploadSize caps user image uploads at 5 MiB.
const MaxImageUploadSize = 5 * 1024 * 1024

var ErrUnsupportedMedia = errors.New("unsupported media type")
var ErrFileTooLarge = errors.New("file too large")

// imageTypes maps accepted content types to the extension used for storage keys
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension validates the declared content type and returns the storage extension.
func ImageExtension(contentType, filename string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}
	if fileExt := strings.ToLower(filepath.Ext(filename)); fileExt == ".jpeg" && ext == ".jpg" {
		return fileExt, nil
	}
	return ext, nil
}

// SniffImage detects the content type from the bytes themselves. The declared type is
// only a first filter; what gets stored is whatever the body really is.
func SniffImage(body []byte, filename string) (contentType, ext string, err error) {
	contentType = http.DetectContentType(body)
	ext, err = ImageExtension(contentType, filename)
	if err != nil {
		return "", "", err
	}
	return contentType, ext, nil
}

// ReadUpload reads a multipart file fully, enforcing limit.
func ReadUpload(fileHeader *multipart.FileHeader, limit int64) ([]byte, error) {
	if fileHeader.Size > limit {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrFileTooLarge, limit)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrFileTooLarge, limit)
	}
	return data, nil
}
