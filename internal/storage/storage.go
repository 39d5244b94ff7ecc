// Package storage is the sink for rendered lock graphs and text reports.
// Artifacts go to a local directory or a Tencent Cloud COS bucket.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores the content of reader under key, replacing any previous object.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens the object at key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the object at key can be found: a file path or a URL.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return invalidConfig("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return invalidConfig("COS bucket is required")
		}
		if cfg.Region == "" {
			return invalidConfig("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return invalidConfig("COS credentials are required")
		}
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			return invalidConfig("local storage path is required")
		}
	default:
		return invalidConfig("unsupported storage type: " + cfg.Type)
	}

	return nil
}

func invalidConfig(msg string) error {
	return errors.New(errors.CodeConfigError, msg)
}

// CleanKey normalizes a key to a slash-separated relative path. Keys that
// would escape the storage root are rejected.
func CleanKey(key string) (string, error) {
	slashed := strings.ReplaceAll(key, "\\", "/")
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", errors.ErrInvalidInput.WithDetail(key)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if cleaned == "" {
		return "", errors.ErrInvalidInput.WithDetail(key)
	}
	return cleaned, nil
}

func storageError(msg string, err error) error {
	return errors.Wrap(errors.CodeStorageError, msg, err)
}
