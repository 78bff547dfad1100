package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
)

var ErrNotFound = errors.New("blob not found")

// Store persists uploaded files by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("new s3 store: %w", err)
		}
		if cfg.S3CreateBucket {
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, fmt.Errorf("ensure bucket: %w", err)
			}
		}
		return s, nil
	case config.StorageDriverLocal:
		s, err := NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("new local store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
