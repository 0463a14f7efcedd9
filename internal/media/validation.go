package media

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the largest file accepted through the server.
const MaxUploadSize = 20 << 20

const DefaultFolder = "works/"

var (
	ErrContentTypeNotAllowed = errors.New("content type not allowed")
	ErrInvalidFolder         = errors.New("invalid folder path")
	ErrFileTooLarge          = errors.New("file too large")
)

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"image/heic":      true,
	"image/heif":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

func ValidateContentType(contentType string) error {
	if !allowedContentTypes[contentType] {
		return fmt.Errorf("%w: %q", ErrContentTypeNotAllowed, contentType)
	}
	return nil
}

// NormalizeFolder turns " /works/2024 " into "works/2024/". Parent
// references are refused.
func NormalizeFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return DefaultFolder, nil
	}
	if strings.Contains(folder, "..") || strings.Contains(folder, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
	}
	return folder + "/", nil
}

// ObjectKey builds a collision free key in folder, keeping the file extension.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "." {
		ext = ""
	}
	return folder + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
