package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"onboarding-portal/config"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("stored object not found")

// Storage keeps onboarding attachments outside the database.
type Storage interface {
	// Put stores data and returns the key to retrieve it with.
	Put(ctx context.Context, fileID uuid.UUID, filename, contentType string, data io.Reader) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// NewStorage selects the backend named by cfg.Type.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for s3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// objectKey builds "<2-char shard>/<id>_<sanitized name><ext>".
func objectKey(fileID uuid.UUID, filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "file"
	}

	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, base, ext)
}
