// Package session tracks in-flight exchanges so they can be stopped from a
// separate request.
package session

import (
	"fmt"
	"sync"

	app_errors "askflow/backend/internal/errors"
)

var (
	ErrNotFound      = fmt.Errorf("session: %w", app_errors.ErrNotFound)
	ErrNotAuthorized = fmt.Errorf("session: %w", app_errors.ErrPermission)
)

// Handle is the registry's view of a live session. Cancel signals the session
// to stop and returns the length of the output accumulated so far.
type Handle interface {
	OwnerID() string
	Cancel() int
}

// Registry maps session ids to handles. It never mutates session state itself.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Handle)}
}

// Register adds h under id, replacing any previous entry.
func (r *Registry) Register(id string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = h
}

// Cancel stops the session if requesterID owns it. The entry is removed and
// the handle signalled under the lock, so only one caller can ever succeed for
// a given id and a session that has been removed has seen every cancellation.
// Handles must not call back into the registry from Cancel.
func (r *Registry) Cancel(id, requesterID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if h.OwnerID() != requesterID {
		return 0, ErrNotAuthorized
	}
	delete(r.sessions, id)
	return h.Cancel(), nil
}

// Remove drops the entry for id. It is a no-op if the session was already
// cancelled or removed.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
