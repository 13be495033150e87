package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/tools"
)

type countingSink struct {
	mu         sync.Mutex
	chunks     []string
	keepAlives int
	fail       error
}

func (s *countingSink) Emit(ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if ev.Type == model.EventChunk {
		s.chunks = append(s.chunks, ev.Data.(model.ChunkData).Content)
	}
	return nil
}

func (s *countingSink) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keepAlives++
	return nil
}

func newTestSession(sink Sink) (*StreamSession, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return newStreamSession("s1", "alice", model.ModeQuick, sink, cancel, time.Now()), ctx
}

func TestStreamSession_CancelStopsChunks(t *testing.T) {
	sink := &countingSink{}
	sess, ctx := newTestSession(sink)

	assert.True(t, sess.emitChunk("héllo"))
	assert.Equal(t, 5, sess.Cancel())
	assert.False(t, sess.emitChunk("more"))
	assert.Error(t, sess.Emit(model.Event{Type: model.EventProgress}))

	assert.Equal(t, []string{"héllo"}, sink.chunks)
	assert.Equal(t, "héllo", sess.Output())
	assert.Error(t, ctx.Err())
}

func TestStreamSession_SinkFailureAborts(t *testing.T) {
	sink := &countingSink{fail: assert.AnError}
	sess, ctx := newTestSession(sink)

	assert.False(t, sess.emitChunk("lost"))
	assert.True(t, sess.checkpoint(ctx))
	assert.Empty(t, sess.Output())
}

func TestStreamSession_CompletedCalls(t *testing.T) {
	sess, _ := newTestSession(&countingSink{})

	sess.mergeFragment(llm.ToolCallDelta{Index: 1, ID: "call_b", Name: tools.GenerateImage, Arguments: `{"prompt":`})
	sess.mergeFragment(llm.ToolCallDelta{Index: 0, Name: tools.WebSearch, Arguments: `{"query":"x"}`})
	sess.mergeFragment(llm.ToolCallDelta{Index: 1, Arguments: `"cat"}`})
	sess.mergeFragment(llm.ToolCallDelta{Index: 2, ID: "call_c", Name: tools.WebSearch})
	sess.markDone(1)
	sess.markDone(0)

	calls := sess.completedCalls()
	assert.Equal(t, []tools.Call{
		{ID: "call_0", Name: tools.WebSearch, Arguments: `{"query":"x"}`},
		{ID: "call_b", Name: tools.GenerateImage, Arguments: `{"prompt":"cat"}`},
	}, calls, "unfinished fragments are dropped")
	assert.Empty(t, sess.completedCalls())
}

func TestStreamSession_KeepAlive(t *testing.T) {
	sink := &countingSink{}
	sess, _ := newTestSession(sink)

	stop := sess.startKeepAlive(5 * time.Millisecond)
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.keepAlives >= 2
	}, time.Second, 5*time.Millisecond)
	stop()
	stop()

	sink.mu.Lock()
	n := sink.keepAlives
	sink.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, n, sink.keepAlives, "no keep-alive after stop")
}

func TestStreamSession_StreamPassTruncated(t *testing.T) {
	sess, ctx := newTestSession(&countingSink{})
	provider := providerFunc(func(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamEvent) error {
		defer close(ch)
		ch <- llm.StreamEvent{Kind: llm.EventTextDelta, Text: "abc"}
		return nil
	})

	res := sess.streamPass(ctx, provider, &llm.CompletionRequest{})
	assert.ErrorIs(t, res.err, errStreamTruncated)
	assert.False(t, res.stopped)
	assert.Equal(t, "abc", sess.Output())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "tools_pending", StateToolsPending.String())
	assert.Equal(t, "unknown", State(42).String())
}

type providerFunc func(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamEvent) error

func (f providerFunc) StreamCompletion(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamEvent) error {
	return f(ctx, req, ch)
}

func (f providerFunc) Generate(context.Context, *llm.CompletionRequest) (string, error) {
	return "", nil
}

func (f providerFunc) ListModels(context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
