package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"warden/internal/shared/constants"
	"warden/internal/shared/errors"
)

type AvatarStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// AvatarStore keeps avatar images in an S3-compatible bucket. Object keys are
// random per upload so a replaced avatar gets a new URL and stale CDN or
// browser caches never serve the old image.
type AvatarStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewAvatarStore(cfg AvatarStoreConfig) (*AvatarStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &AvatarStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// EnsureBucket creates the avatar bucket if it does not exist yet. Called once
// at startup.
func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// Upload stores an avatar image and returns its object key and public URL.
// Size and content type are validated here so every caller gets the same
// constraints.
func (s *AvatarStore) Upload(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (objectKey, publicURL string, err error) {
	if size <= 0 || size > constants.AvatarMaxBytes {
		return "", "", errors.NewValidationError(
			fmt.Sprintf("avatar must be between 1 byte and %d bytes", constants.AvatarMaxBytes))
	}

	ext, ok := constants.AvatarContentTypes[contentType]
	if !ok {
		return "", "", errors.NewValidationError("avatar must be a PNG, JPEG, or WebP image")
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", "", fmt.Errorf("failed to generate object key: %w", err)
	}
	objectKey = fmt.Sprintf("u%d/%s%s", userID, hex.EncodeToString(suffix), ext)

	_, err = s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", errors.NewUnavailableError(fmt.Sprintf("failed to store avatar: %v", err))
	}

	return objectKey, s.URLFor(objectKey), nil
}

// Delete removes a stored avatar. Deleting a missing object is not an error.
func (s *AvatarStore) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.NewUnavailableError(fmt.Sprintf("failed to delete avatar: %v", err))
	}
	return nil
}

// URLFor returns the public URL for an object key.
func (s *AvatarStore) URLFor(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectKey)
}

// KeyFromURL recovers the object key from a stored avatar URL. Returns an
// empty string when the URL does not belong to this store.
func (s *AvatarStore) KeyFromURL(url string) string {
	prefix := fmt.Sprintf("%s/%s/", s.publicURL, s.bucket)
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
