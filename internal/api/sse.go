package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"askflow/backend/internal/model"
)

var errStreamingUnsupported = errors.New("response writer does not support flushing")

// SSESink writes exchange events as Server-Sent Events. The `event:` line
// carries the event type so clients can use addEventListener per type.
type SSESink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSESink writes the stream headers and returns the sink.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSESink{w: w, flusher: flusher}, nil
}

// Emit writes one event. A write error means the client is gone.
func (s *SSESink) Emit(ev model.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// KeepAlive writes an SSE comment so proxies keep the connection open.
func (s *SSESink) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
