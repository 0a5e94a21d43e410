// Package objectstore implements the C1 object storage abstraction: local
// filesystem and S3-compatible backends behind a single domain.ObjectStore
// interface.
package objectstore

import (
	"errors"
	"fmt"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
)

// ErrNotSupported is returned by SignedURL on backends that cannot produce
// time-limited download links (the local backend).
var ErrNotSupported = errors.New("objectstore: operation not supported by this backend")

// New builds the configured backend.
func New(cfg config.Config) (domain.ObjectStore, error) {
	switch cfg.ObjectStoreBackend {
	case "local", "":
		return NewLocal(cfg.ObjectStoreBase), nil
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("objectstore: unknown backend %q", cfg.ObjectStoreBackend)
	}
}
