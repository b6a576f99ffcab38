// Package objectstore uploads photo files and returns the public URL they
// are served from.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
)

// Store uploads a file and returns a stable, publicly fetchable URL.
// Failures match common.ErrStorage.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// NewKey returns a fresh object key under photos/, partitioned by upload
// date and keeping the lower-cased extension of filename.
func NewKey(now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("photos/%04d/%02d/%02d/%v%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

// New builds the store selected by cfg.ObjectStore.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreS3:
		return NewS3Store(ctx, S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3BaseEndpoint,
			AccessKey:     cfg.AWSAccessKey,
			SecretKey:     cfg.AWSSecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	case config.ObjectStoreLocal:
		return NewLocalStore(cfg.LocalUploadDir, cfg.LocalURLPrefix)
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
	}
}
