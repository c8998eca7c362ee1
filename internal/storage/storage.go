package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"

	cfg "github.com/kshaab/Coursework-5/internal/config"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, file io.Reader) error

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// URL returns a URL for reading the file
	URL(path string) string
}

// New picks S3-compatible storage when a bucket is configured and the local
// media directory otherwise.
func New(c *cfg.Config) (Storage, error) {
	if !c.UseS3() {
		slog.Info("initializing local storage", "root", c.MediaRoot)
		return NewLocalStorage(c.MediaRoot, strings.TrimSuffix(c.AppURL, "/")+"/media")
	}

	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3Storage(S3Config{
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Endpoint:      c.S3Endpoint,
		PresignExpiry: c.S3PresignExpiry,
	})
}
