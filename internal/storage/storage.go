// Package storage persists user attachments and generated media durably.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	app_errors "askflow/backend/internal/errors"
)

// Namespaces used by the service.
const (
	NamespaceUploads   = "uploads"
	NamespaceGenerated = "generated"
)

// Object is a stored blob.
type Object struct {
	Key string
	URL string
}

// ObjectInfo describes a blob opened for reading.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// BlobStore is the durable storage collaborator.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, namespace, contentType string) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
}

var ErrObjectNotFound = fmt.Errorf("storage: object %w", app_errors.ErrNotFound)

// newKey builds namespace/yyyy/mm/dd/<uuid><ext>.
func newKey(namespace, contentType string, now time.Time) string {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		namespace = NamespaceUploads
	}
	return path.Join(namespace, now.UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return false
		}
	}
	return true
}

// publicURL joins base and key. An empty base yields the path served by the
// /files route.
func publicURL(base, key string) string {
	if base == "" {
		return "/files/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
