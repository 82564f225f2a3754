package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// localStore keeps files in a single directory.
type localStore struct {
	dir string
}

func newLocalStore(dir string) (*localStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Backend() string {
	return "local"
}

// Save writes to a temporary file first so readers never see a partial file.
func (s *localStore) Save(_ context.Context, name string, body io.Reader, _ int64, _ string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}

	return nil
}

func (s *localStore) Locate(_ context.Context, name string) (Download, error) {
	name, err := CleanName(name)
	if err != nil {
		return Download{}, err
	}

	path := filepath.Join(s.dir, name)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return Download{}, ErrNotFound
	}
	if err != nil {
		return Download{}, fmt.Errorf("stat %s: %w", name, err)
	}

	return Download{
		Path:        path,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
	}, nil
}
