package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"askflow/backend/internal/storage"
)

// FileHandler serves blobs from the local store. Keys are random, so objects
// are immutable and cacheable.
type FileHandler struct {
	store storage.BlobStore
}

func NewFileHandler(store storage.BlobStore) *FileHandler {
	return &FileHandler{store: store}
}

// ServeFile handles GET /files/*.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rc, info, err := h.store.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	defer func() { _ = rc.Close() }()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to write file response", "error", err)
	}
}
