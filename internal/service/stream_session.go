package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/tools"
)

// Sink is the transport-neutral output of an exchange. Implementations must
// be safe for concurrent use: keep-alives are written from a second goroutine.
type Sink interface {
	Emit(ev model.Event) error
	KeepAlive() error
}

// State is the lifecycle position of a StreamSession.
type State int

const (
	StateConnecting State = iota
	StateStreamingPrimary
	StateToolsPending
	StateStreamingSecondary
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreamingPrimary:
		return "streaming_primary"
	case StateToolsPending:
		return "tools_pending"
	case StateStreamingSecondary:
		return "streaming_secondary"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

type fragment struct {
	index int
	id    string
	name  string
	args  strings.Builder
	done  bool
}

// StreamSession is the state of one exchange. Everything except the fields
// guarded by mu is touched only by the goroutine driving the exchange.
type StreamSession struct {
	ID             string
	UserID         string
	ConversationID string
	Mode           model.Mode
	CreatedAt      time.Time

	sink   Sink
	cancel context.CancelFunc

	// mu orders chunk emission against cancellation: once Cancel returns,
	// no further chunk reaches the sink.
	mu          sync.Mutex
	cancelled   bool
	output      strings.Builder
	outputRunes int

	state     State
	fragments []*fragment
	media     []model.GeneratedMedia
}

func newStreamSession(id, userID string, mode model.Mode, sink Sink, cancel context.CancelFunc, now time.Time) *StreamSession {
	return &StreamSession{
		ID:        id,
		UserID:    userID,
		Mode:      mode,
		CreatedAt: now,
		sink:      sink,
		cancel:    cancel,
		state:     StateConnecting,
	}
}

// OwnerID implements session.Handle.
func (s *StreamSession) OwnerID() string { return s.UserID }

// Cancel implements session.Handle. It returns the number of characters
// delivered so far.
func (s *StreamSession) Cancel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	s.cancel()
	return s.outputRunes
}

func (s *StreamSession) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	s.cancel()
}

func (s *StreamSession) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// checkpoint folds a done context into the cancelled flag and reports it.
func (s *StreamSession) checkpoint(ctx context.Context) bool {
	if ctx.Err() != nil {
		s.abort()
		return true
	}
	return s.isCancelled()
}

// emitChunk forwards text and appends it to the output. It returns false if
// the session is cancelled or the sink failed.
func (s *StreamSession) emitChunk(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return false
	}
	if err := s.sink.Emit(model.Event{Type: model.EventChunk, Data: model.ChunkData{Content: text}}); err != nil {
		s.cancelled = true
		s.cancel()
		return false
	}
	s.output.WriteString(text)
	s.outputRunes += utf8.RuneCountInString(text)
	return true
}

// Emit implements tools.Emitter. Side-channel events are dropped once the
// session is cancelled.
func (s *StreamSession) Emit(ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return context.Canceled
	}
	return s.sink.Emit(ev)
}

// emitControl writes protocol events (connecting, connected, done, error,
// close) regardless of cancellation.
func (s *StreamSession) emitControl(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.sink.Emit(ev)
}

// Output returns the text accumulated so far.
func (s *StreamSession) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output.String()
}

func (s *StreamSession) setState(st State) { s.state = st }

// State returns the current lifecycle state.
func (s *StreamSession) State() State { return s.state }

func (s *StreamSession) mergeFragment(d llm.ToolCallDelta) {
	f := s.fragment(d.Index)
	if d.ID != "" {
		f.id = d.ID
	}
	if d.Name != "" {
		f.name = d.Name
	}
	f.args.WriteString(d.Arguments)
}

func (s *StreamSession) markDone(index int) {
	s.fragment(index).done = true
}

// fragment returns the fragment for index, inserting it in index order.
func (s *StreamSession) fragment(index int) *fragment {
	i := sort.Search(len(s.fragments), func(i int) bool { return s.fragments[i].index >= index })
	if i < len(s.fragments) && s.fragments[i].index == index {
		return s.fragments[i]
	}
	f := &fragment{index: index}
	s.fragments = append(s.fragments, nil)
	copy(s.fragments[i+1:], s.fragments[i:])
	s.fragments[i] = f
	return f
}

// completedCalls freezes the fragment list into calls, in index order.
func (s *StreamSession) completedCalls() []tools.Call {
	calls := make([]tools.Call, 0, len(s.fragments))
	for _, f := range s.fragments {
		if !f.done {
			continue
		}
		id := f.id
		if id == "" {
			id = fmt.Sprintf("call_%d", f.index)
		}
		calls = append(calls, tools.Call{ID: id, Name: f.name, Arguments: f.args.String()})
	}
	s.fragments = nil
	return calls
}

func (s *StreamSession) addMedia(m model.GeneratedMedia) {
	s.media = append(s.media, m)
}

// startKeepAlive writes a keep-alive every interval until the returned stop
// function is called. stop waits for the writer goroutine to exit.
func (s *StreamSession) startKeepAlive(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = s.sink.KeepAlive()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

type passResult struct {
	finishReason string
	stopped      bool
	err          error
}

var errStreamTruncated = errors.New("model stream ended without a finish signal")

// streamPass runs one model call and forwards its text. Cancellation is
// checked before every event.
func (s *StreamSession) streamPass(ctx context.Context, provider llm.Provider, req *llm.CompletionRequest) passResult {
	ch := make(chan llm.StreamEvent)
	go func() { _ = provider.StreamCompletion(ctx, req, ch) }()
	defer func() {
		for range ch {
		}
	}()

	for ev := range ch {
		if s.checkpoint(ctx) {
			return passResult{stopped: true}
		}
		switch ev.Kind {
		case llm.EventTextDelta:
			if !s.emitChunk(ev.Text) {
				return passResult{stopped: true}
			}
		case llm.EventToolCallDelta:
			s.mergeFragment(ev.ToolCall)
		case llm.EventToolCallDone:
			s.markDone(ev.ToolCall.Index)
		case llm.EventStreamFinished:
			if ev.Err != nil {
				if s.checkpoint(ctx) {
					return passResult{stopped: true}
				}
				return passResult{err: ev.Err}
			}
			return passResult{finishReason: ev.FinishReason}
		}
	}

	if s.checkpoint(ctx) {
		return passResult{stopped: true}
	}
	return passResult{err: errStreamTruncated}
}
