package session_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/session"
)

type fakeHandle struct {
	owner   string
	partial int
	cancels atomic.Int32
}

func (h *fakeHandle) OwnerID() string { return h.owner }

func (h *fakeHandle) Cancel() int {
	h.cancels.Add(1)
	return h.partial
}

func TestRegistry_Cancel(t *testing.T) {
	t.Run("Success - Owner cancels once", func(t *testing.T) {
		reg := session.NewRegistry()
		h := &fakeHandle{owner: "alice", partial: 42}
		reg.Register("s1", h)

		n, err := reg.Cancel("s1", "alice")
		require.NoError(t, err)
		assert.Equal(t, 42, n)
		assert.Equal(t, int32(1), h.cancels.Load())

		_, err = reg.Cancel("s1", "alice")
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
		assert.Equal(t, int32(1), h.cancels.Load())
	})

	t.Run("Failure - Other user is not authorized", func(t *testing.T) {
		reg := session.NewRegistry()
		h := &fakeHandle{owner: "alice"}
		reg.Register("s1", h)

		_, err := reg.Cancel("s1", "mallory")
		assert.ErrorIs(t, err, app_errors.ErrPermission)
		assert.Zero(t, h.cancels.Load())
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("Failure - Unknown id", func(t *testing.T) {
		_, err := session.NewRegistry().Cancel("nope", "alice")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("Failure - Removed session cannot be cancelled", func(t *testing.T) {
		reg := session.NewRegistry()
		h := &fakeHandle{owner: "alice"}
		reg.Register("s1", h)
		reg.Remove("s1")
		reg.Remove("s1")

		_, err := reg.Cancel("s1", "alice")
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.Zero(t, h.cancels.Load())
	})
}

func TestRegistry_ConcurrentCancel(t *testing.T) {
	reg := session.NewRegistry()
	h := &fakeHandle{owner: "alice"}
	reg.Register("s1", h)

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Cancel("s1", "alice"); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reg.Remove("s1")
	}()
	wg.Wait()

	assert.LessOrEqual(t, successes.Load(), int32(1))
	assert.Equal(t, successes.Load(), h.cancels.Load())
	assert.Zero(t, reg.Len())
}

// blockingHandle holds Cancel open until released.
type blockingHandle struct {
	entered  chan struct{}
	release  chan struct{}
	signaled atomic.Bool
}

func (h *blockingHandle) OwnerID() string { return "alice" }

func (h *blockingHandle) Cancel() int {
	close(h.entered)
	<-h.release
	h.signaled.Store(true)
	return 0
}

func TestRegistry_RemoveWaitsForCancel(t *testing.T) {
	reg := session.NewRegistry()
	h := &blockingHandle{entered: make(chan struct{}), release: make(chan struct{})}
	reg.Register("s1", h)

	cancelled := make(chan error, 1)
	go func() {
		_, err := reg.Cancel("s1", "alice")
		cancelled <- err
	}()
	<-h.entered

	removed := make(chan bool, 1)
	go func() {
		reg.Remove("s1")
		removed <- h.signaled.Load()
	}()

	select {
	case <-removed:
		t.Fatal("Remove returned while a cancellation was still being signalled")
	case <-time.After(50 * time.Millisecond):
	}

	close(h.release)
	require.NoError(t, <-cancelled)
	assert.True(t, <-removed, "session removed before it observed the cancellation")
}
