package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// FileStore keeps blobs in a local directory.
type FileStore struct {
	bucket  *blob.Bucket
	baseURL string
	now     func() time.Time
}

// NewFileStore opens (and creates) dir as a bucket. URLs are built from baseURL,
// or point at the /files route when it is empty.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create storage directory: %w", err)
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{NoTempDir: true})
	if err != nil {
		return nil, fmt.Errorf("could not open file bucket: %w", err)
	}
	return &FileStore{bucket: bucket, baseURL: baseURL, now: time.Now}, nil
}

func (s *FileStore) Upload(ctx context.Context, data []byte, namespace, contentType string) (*Object, error) {
	key := newKey(namespace, contentType, s.now())
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return nil, fmt.Errorf("could not write blob: %w", err)
	}
	return &Object{Key: key, URL: publicURL(s.baseURL, key)}, nil
}

func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	if !validKey(key) {
		return nil, nil, ErrObjectNotFound
	}
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("could not open blob: %w", err)
	}
	return r, &ObjectInfo{ContentType: r.ContentType(), Size: r.Size()}, nil
}

func (s *FileStore) Close() error {
	return s.bucket.Close()
}
