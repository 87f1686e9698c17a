package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/basel-ax/promptpix/internal/domain"
)

// LocalStore keeps artifacts in a directory that the HTTP server exposes publicly
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Put writes data under a new name. An existing file is never replaced.
func (s *LocalStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key, err := NewKey("", contentType)
	if err != nil {
		return "", &domain.StorageError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &domain.StorageError{Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", &domain.StorageError{Key: key, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &domain.StorageError{Key: key, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", &domain.StorageError{Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &domain.StorageError{Key: key, Err: err}
	}

	// Link fails when the target exists
	if err := os.Link(tmpName, filepath.Join(s.dir, key)); err != nil {
		return "", &domain.StorageError{Key: key, Err: err}
	}
	return s.url(key), nil
}

// List returns every stored artifact
func (s *LocalStore) List(ctx context.Context) ([]domain.StoredObject, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &domain.StorageError{Err: fmt.Errorf("failed to list %s: %w", s.dir, err)}
	}

	objects := make([]domain.StoredObject, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		objects = append(objects, domain.StoredObject{
			Key:          e.Name(),
			URL:          s.url(e.Name()),
			LastModified: info.ModTime(),
		})
	}
	return objects, nil
}

func (s *LocalStore) url(key string) string {
	return s.baseURL + "/" + url.PathEscape(key)
}
