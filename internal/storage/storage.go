package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

const photoPrefix = "progress-photos"

var ErrStorageDisabled = errors.New("object storage is not configured")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL returns a temporary URL accepting a PUT of
	// objectKey. The client must send the same Content-Type header.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL returns a temporary URL for a GET of objectKey.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	DeleteObject(ctx context.Context, objectKey string) error
}

// PhotoKey builds the object key of a new progress photo for a weight entry:
// progress-photos/<userID>/<weightID>/<uuid><ext>.
func PhotoKey(userID, weightID primitive.ObjectID, contentType string) string {
	return path.Join(photoPrefix, userID.Hex(), weightID.Hex(), uuid.NewString()+extension(contentType))
}

// PhotoKeyBelongsTo reports whether key was issued by PhotoKey for the given entry.
func PhotoKeyBelongsTo(key string, userID, weightID primitive.ObjectID) bool {
	prefix := path.Join(photoPrefix, userID.Hex(), weightID.Hex()) + "/"
	return strings.HasPrefix(key, prefix) && len(key) > len(prefix) && !strings.Contains(key[len(prefix):], "/")
}

func extension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}

// disabled is used when no bucket is configured.
type disabled struct{}

// NewDisabledStorage returns a FileStorage whose operations all fail with ErrStorageDisabled.
func NewDisabledStorage() FileStorage { return disabled{} }

func (disabled) GeneratePresignedUploadURL(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrStorageDisabled
}

func (disabled) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrStorageDisabled
}

func (disabled) DeleteObject(context.Context, string) error { return ErrStorageDisabled }

// IsDisabled reports whether err means storage is switched off.
func IsDisabled(err error) bool { return errors.Is(err, ErrStorageDisabled) }

func wrap(op, key string, err error) error {
	return fmt.Errorf("storage: %s %q: %w", op, key, err)
}
