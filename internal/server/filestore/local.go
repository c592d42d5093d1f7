package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
)

// LocalStore keeps files below a directory on disk. URL joins the reference
// onto baseURL, under which the HTTP layer serves the directory.
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Dir is the root directory of the store.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	ref := RandomStorageKey(prefix, filename, s.now())
	full := filepath.Join(s.dir, filepath.FromSlash(ref))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("writing file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return ref, nil
}

// path maps ref to a file below the store root; ".." cannot climb out.
func (s *LocalStore) path(ref string) (string, string) {
	clean := filepath.ToSlash(filepath.Clean("/" + ref))
	return clean, filepath.Join(s.dir, filepath.FromSlash(clean))
}

func (s *LocalStore) URL(ctx context.Context, ref string) (string, error) {
	clean, full := s.path(ref)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	return s.baseURL + clean, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	clean, full := s.path(ref)
	if clean == "/" {
		return fmt.Errorf("refusing to delete store root")
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}
