package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/storage"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir(), "")
	require.NoError(t, err)
	defer store.Close()

	t.Run("Success - Upload then open", func(t *testing.T) {
		obj, err := store.Upload(ctx, []byte("hello"), storage.NamespaceGenerated, "image/png")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(obj.Key, "generated/"))
		assert.True(t, strings.HasSuffix(obj.Key, ".png"))
		assert.Equal(t, "/files/"+obj.Key, obj.URL)

		r, info, err := store.Open(ctx, obj.Key)
		require.NoError(t, err)
		defer r.Close()
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
		assert.Equal(t, "image/png", info.ContentType)
		assert.EqualValues(t, 5, info.Size)
	})

	t.Run("Failure - Unknown key", func(t *testing.T) {
		_, _, err := store.Open(ctx, "generated/missing.png")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("Failure - Path traversal", func(t *testing.T) {
		_, _, err := store.Open(ctx, "../etc/passwd")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("Success - Public base URL", func(t *testing.T) {
		s, err := storage.NewFileStore(t.TempDir(), "https://cdn.example.com/")
		require.NoError(t, err)
		defer s.Close()
		obj, err := s.Upload(ctx, []byte("x"), "", "text/plain")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(obj.URL, "https://cdn.example.com/uploads/"))
	})
}

// fakeS3 is a minimal path-style S3 endpoint keeping objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[r.URL.Path])
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          "media",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		Prefix:          "askflow",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	obj, err := store.Upload(ctx, []byte("raster"), storage.NamespaceGenerated, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/files/"+obj.Key, obj.URL)

	fake.mu.Lock()
	_, stored := fake.objects["/media/askflow/"+obj.Key]
	fake.mu.Unlock()
	assert.True(t, stored)

	r, info, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	defer r.Close()
	body, _ := io.ReadAll(r)
	assert.Equal(t, "raster", string(body))
	assert.Equal(t, "image/png", info.ContentType)

	_, _, err = store.Open(ctx, "generated/none.png")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	t.Run("Failure - Missing bucket", func(t *testing.T) {
		_, err := storage.NewS3Store(ctx, storage.S3Config{})
		assert.Error(t, err)
	})
}
