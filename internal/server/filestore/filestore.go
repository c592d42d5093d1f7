// Package filestore keeps uploaded files (certificate documents and profile
// images) and hands out URLs for them.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore stores raw file bytes. Put returns an opaque reference that URL
// later turns into a downloadable link. Delete of a missing ref succeeds.
type FileStore interface {
	Put(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error)
	URL(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// RandomStorageKey builds "<prefix>/<y>/<m>/<d>/<uuid><ext>" for a new upload.
func RandomStorageKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d/%d/%d/%v%s", strings.Trim(prefix, "/"), now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}
