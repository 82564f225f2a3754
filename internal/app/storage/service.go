/*
Package storage keeps files uploaded by chat clients, on local disk or in an
S3-compatible bucket.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// PresignedURLDuration is how long a download link handed to a client stays valid.
const PresignedURLDuration = 15 * time.Minute

var (
	// ErrNotFound is returned when no file is stored under the requested name.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned for names that do not denote a plain file.
	ErrInvalidName = errors.New("invalid file name")
)

// ServiceConfig selects and configures a backend. A non-empty S3BucketName
// selects the S3 backend; otherwise files are kept under Dir.
type ServiceConfig struct {
	Dir string

	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Download tells the HTTP layer how to deliver a stored file. Exactly one of
// URL and Path is set.
type Download struct {
	// URL is a time-limited link the client is redirected to.
	URL string

	// Path is a local file served directly.
	Path string

	ContentType string
}

// Service is the file store behind the upload endpoints.
type Service interface {
	// Save stores body under name, replacing any file with the same name.
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error

	// Locate returns how to deliver the file stored under name, or ErrNotFound.
	Locate(ctx context.Context, name string) (Download, error)

	// Backend names the backend for logs.
	Backend() string
}

// NewService is the factory function for Service.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	if cfg.S3BucketName != "" {
		return newS3Client(ctx, cfg)
	}
	return newLocalStore(cfg.Dir)
}

// CleanName reduces a client-supplied file name to its base name and rejects
// names that cannot be stored as a plain file.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)

	switch base {
	case "", ".", "..", "/":
		return "", ErrInvalidName
	}
	if strings.ContainsRune(base, 0) {
		return "", ErrInvalidName
	}

	return base, nil
}
