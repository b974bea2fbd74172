// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/kachi/internal/core"
)

// ErrNotFound is returned by Read when nothing is stored at the path.
var ErrNotFound = &core.Error{Code: "ARCHIVE_NOT_FOUND", Message: "archive object not found"}

// Storage is a blob backend for archived recommendation runs.
// Paths are slash separated and relative to the backend root.
type Storage interface {
	// Write stores data at the given path, replacing any existing object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"`
	Path    string   `mapstructure:"path"`
	S3      S3Config `mapstructure:"s3"`
}

// New builds the backend named by cfg.Type ("localfs" or "s3").
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		if cfg.Path == "" {
			return nil, core.WrapError(core.ErrConfigMissing, errors.New("archive.path is empty"))
		}
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", cfg.Type))
	}
}

