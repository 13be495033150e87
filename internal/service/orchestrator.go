package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/observability"
	"askflow/backend/internal/repository"
	"askflow/backend/internal/session"
	"askflow/backend/internal/storage"
	"askflow/backend/internal/tools"
)

// Image types accepted as attachments.
var supportedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// ModelSelector resolves the model identifier for a mode.
type ModelSelector interface {
	ModelFor(ctx context.Context, mode model.Mode) (string, error)
}

// TitleGenerator names a conversation from its first message.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, conversationID, firstMessage string) error
}

// OrchestratorDeps holds the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	Repo              repository.Repository
	Provider          llm.Provider
	Tools             *tools.Registry
	Executor          *tools.Executor
	Sessions          *session.Registry
	Store             storage.BlobStore
	Models            ModelSelector
	Titles            TitleGenerator
	Metrics           *observability.Metrics
	Tracer            *observability.Tracer
	KeepAliveInterval time.Duration
	Now               func() time.Time
}

// Orchestrator runs exchanges: it validates a request, drives the model
// through one or two passes with tool calls in between, and persists the
// result in the background once the client stream is closed.
type Orchestrator struct {
	repo      repository.Repository
	provider  llm.Provider
	tools     *tools.Registry
	executor  *tools.Executor
	sessions  *session.Registry
	store     storage.BlobStore
	models    ModelSelector
	titles    TitleGenerator
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	keepAlive time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func NewOrchestrator(d OrchestratorDeps) *Orchestrator {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		repo:      d.Repo,
		provider:  d.Provider,
		tools:     d.Tools,
		executor:  d.Executor,
		sessions:  d.Sessions,
		store:     d.Store,
		models:    d.Models,
		titles:    d.Titles,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		keepAlive: d.KeepAliveInterval,
		now:       now,
	}
}

// PreparedExchange is a validated request with everything resolved that can
// fail before the client stream is opened.
type PreparedExchange struct {
	Request      *model.ExchangeRequest
	Conversation *model.Conversation
	Space        *model.Space
	History      []model.Message
	ModelID      string
	ImageRecord  *model.AttachmentRecord
	imageURL     string
}

// Prepare validates req and resolves the space, the existing conversation and
// its history, the model, and the image upload. The independent lookups run
// concurrently. Errors map to HTTP responses.
func (o *Orchestrator) Prepare(ctx context.Context, req *model.ExchangeRequest) (*PreparedExchange, error) {
	if req.Mode == "" {
		req.Mode = model.ModeQuick
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", app_errors.ErrValidation, req.Mode)
	}
	hasDocument := req.Document != nil && strings.TrimSpace(req.Document.Text) != ""
	if strings.TrimSpace(req.Prompt) == "" && req.Image == nil && !hasDocument {
		return nil, fmt.Errorf("%w: a prompt, an image or a document is required", app_errors.ErrValidation)
	}
	if req.Image != nil {
		if len(req.Image.Data) == 0 {
			return nil, fmt.Errorf("%w: image attachment is empty", app_errors.ErrValidation)
		}
		if !slices.Contains(supportedImageTypes, req.Image.MimeType) {
			return nil, fmt.Errorf("%w: image type %s", app_errors.ErrUnsupportedMedia, req.Image.MimeType)
		}
	}

	prep := &PreparedExchange{Request: req}
	g, gctx := errgroup.WithContext(ctx)

	if req.SpaceID != "" {
		g.Go(func() error {
			space, err := authorizeSpace(gctx, o.repo, req.UserID, req.SpaceID)
			prep.Space = space
			return err
		})
	}

	if req.ConversationID != "" {
		g.Go(func() error {
			conv, err := o.repo.GetConversation(gctx, req.ConversationID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("conversation %s: %w", req.ConversationID, app_errors.ErrNotFound)
				}
				return fmt.Errorf("could not get conversation: %w", err)
			}
			if conv.UserID != req.UserID {
				return fmt.Errorf("conversation %s: %w", req.ConversationID, app_errors.ErrPermission)
			}
			history, err := o.repo.GetRecentMessages(gctx, conv.ID, historyWindow(req.Mode))
			if err != nil {
				return fmt.Errorf("could not load history: %w", err)
			}
			prep.Conversation = conv
			prep.History = history
			return nil
		})
	}

	g.Go(func() error {
		id, err := o.models.ModelFor(gctx, req.Mode)
		if err != nil {
			return fmt.Errorf("could not resolve model: %w", err)
		}
		prep.ModelID = id
		return nil
	})

	if req.Image != nil {
		g.Go(func() error {
			prep.ImageRecord = o.uploadAttachment(gctx, req.Image)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A conversation created inside a space keeps its instruction.
	if prep.Space == nil && prep.Conversation != nil && prep.Conversation.SpaceID != nil {
		space, err := authorizeSpace(ctx, o.repo, req.UserID, *prep.Conversation.SpaceID)
		if err != nil && !errors.Is(err, app_errors.ErrNotFound) {
			return nil, err
		}
		prep.Space = space
	}

	if req.Image != nil {
		prep.imageURL = "data:" + req.Image.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
	}
	return prep, nil
}

func (o *Orchestrator) uploadAttachment(ctx context.Context, img *model.Attachment) *model.AttachmentRecord {
	record := &model.AttachmentRecord{Name: img.Name, MimeType: img.MimeType, SizeBytes: len(img.Data)}
	obj, err := o.store.Upload(ctx, img.Data, storage.NamespaceUploads, img.MimeType)
	if err != nil {
		slog.Warn("Could not store image attachment", "error", err)
		record.UploadError = err.Error()
		return record
	}
	record.StorageID = obj.Key
	record.URL = &obj.URL
	return record
}

// Stop cancels a running exchange owned by userID.
func (o *Orchestrator) Stop(ctx context.Context, userID, sessionID string) (*model.StopResult, error) {
	n, err := o.sessions.Cancel(sessionID, userID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Exchange stopped by user", "session_id", sessionID, "user_id", userID, "partial_length", n)
	return &model.StopResult{Status: model.FinishStopped, SessionID: sessionID, PartialResponseLength: n}, nil
}

// Wait blocks until all background persistence has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

type exchangeOutcome struct {
	finishReason string
	errData      *model.ErrorData
	isNew        bool
}

// Stream runs the exchange and writes its events to sink until close. It
// returns once the close event has been written; persistence continues in
// the background.
func (o *Orchestrator) Stream(ctx context.Context, prep *PreparedExchange, sink Sink) {
	req := prep.Request
	startedAt := o.now()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := newStreamSession(uuid.NewString(), req.UserID, req.Mode, sink, cancel, startedAt)
	logger := slog.With("session_id", sess.ID, "user_id", req.UserID, "mode", string(req.Mode))

	sessionCtx, span := o.tracer.Start(sessionCtx, "exchange",
		attribute.String("session.id", sess.ID),
		attribute.String("exchange.mode", string(req.Mode)),
	)
	defer span.End()

	o.sessions.Register(sess.ID, sess)
	o.metrics.ActiveSessions.Inc()
	defer o.metrics.ActiveSessions.Dec()

	sess.emitControl(model.Event{Type: model.EventConnecting, Data: model.ConnectingData{SessionID: sess.ID}})
	stopKeepAlive := sess.startKeepAlive(o.keepAlive)

	outcome := o.drive(sessionCtx, sess, prep, logger)

	o.sessions.Remove(sess.ID)
	stopKeepAlive()

	// A stop acknowledged after the model finished but before removal still wins.
	if outcome.errData == nil && sess.isCancelled() {
		outcome.finishReason = model.FinishStopped
	}

	if outcome.errData != nil {
		sess.setState(StateAborted)
		sess.emitControl(model.Event{Type: model.EventError, Data: *outcome.errData})
	} else {
		if outcome.finishReason == model.FinishStopped {
			sess.setState(StateAborted)
		} else {
			sess.setState(StateDone)
		}
		sess.emitControl(model.Event{Type: model.EventDone, Data: model.DoneData{
			FinishReason:    outcome.finishReason,
			FullResponse:    sess.Output(),
			GeneratedImages: sess.media,
		}})
	}
	sess.emitControl(model.Event{Type: model.EventClose, Data: model.CloseData{}})

	o.metrics.RecordExchange(string(req.Mode), outcome.finishReason)
	span.SetAttributes(attribute.String("exchange.finish_reason", outcome.finishReason))
	logger.Info("Exchange finished", "conversation_id", sess.ConversationID, "finish_reason", outcome.finishReason, "chars", len(sess.Output()), "duration", time.Since(startedAt))

	if sess.ConversationID == "" {
		return
	}
	record := persistRecord{
		sessionID:      sess.ID,
		conversationID: sess.ConversationID,
		isNew:          outcome.isNew,
		request:        req,
		imageRecord:    prep.ImageRecord,
		modelID:        prep.ModelID,
		output:         sess.Output(),
		media:          sess.media,
		finishReason:   outcome.finishReason,
		startedAt:      startedAt,
		finishedAt:     o.now(),
	}
	if outcome.errData != nil {
		record.errMessage = outcome.errData.Message
	}

	bg := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.persist(bg, record, logger)
	}()
}

// drive moves the session through its states and reports how it ended.
func (o *Orchestrator) drive(ctx context.Context, sess *StreamSession, prep *PreparedExchange, logger *slog.Logger) exchangeOutcome {
	req := prep.Request

	conv, isNew, err := o.ensureConversation(ctx, prep)
	if err != nil {
		logger.Error("Could not create conversation", "error", err)
		return exchangeOutcome{finishReason: model.FinishError, errData: &model.ErrorData{
			Message: "Could not create the conversation.",
			Status:  http.StatusInternalServerError,
			Code:    "conversation_unavailable",
		}}
	}
	sess.ConversationID = conv.ID
	sess.emitControl(model.Event{Type: model.EventConnected, Data: model.ConnectedData{ConversationID: conv.ID, SessionID: sess.ID}})

	stopped := exchangeOutcome{finishReason: model.FinishStopped, isNew: isNew}
	failed := func(err error) exchangeOutcome {
		c := llm.Classify(err)
		logger.Error("Model stream failed", "error", err, "status", c.Status, "code", c.Code)
		return exchangeOutcome{finishReason: model.FinishError, isNew: isNew, errData: &model.ErrorData{Message: c.Message, Status: c.Status, Code: c.Code}}
	}

	descriptors := o.tools.ToolsFor(req.Mode, req.Prompt)
	messages := buildMessages(req, prep.Space, prep.History, prep.imageURL, o.now())

	sess.setState(StateStreamingPrimary)
	res := o.modelPass(ctx, sess, "primary", &llm.CompletionRequest{
		Model:    prep.ModelID,
		Messages: messages,
		Tools:    tools.AsLLMTools(descriptors),
	})
	switch {
	case res.stopped:
		return stopped
	case res.err != nil:
		return failed(res.err)
	}

	calls := sess.completedCalls()
	if res.finishReason != llm.FinishReasonToolCalls || len(calls) == 0 {
		return exchangeOutcome{finishReason: finishReason(res.finishReason), isNew: isNew}
	}

	sess.setState(StateToolsPending)
	assistant := llm.Message{Role: model.RoleAssistant, Content: sess.Output()}
	for _, c := range calls {
		assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	messages = append(messages, assistant)

	for _, call := range calls {
		if sess.checkpoint(ctx) {
			return stopped
		}
		logger.Info("Executing tool", "tool", call.Name, "tool_call_id", call.ID)
		result := o.executor.Execute(ctx, call, req.Prompt, sess)
		if result.Media != nil {
			sess.addMedia(*result.Media)
		}
		messages = append(messages, llm.Message{Role: model.RoleTool, ToolCallID: result.CallID, Content: result.Content})
	}
	if sess.checkpoint(ctx) {
		return stopped
	}

	sess.setState(StateStreamingSecondary)
	res = o.modelPass(ctx, sess, "secondary", &llm.CompletionRequest{
		Model:    prep.ModelID,
		Messages: messages,
	})
	switch {
	case res.stopped:
		return stopped
	case res.err != nil:
		return failed(res.err)
	}
	sess.completedCalls()
	return exchangeOutcome{finishReason: finishReason(res.finishReason), isNew: isNew}
}

func (o *Orchestrator) modelPass(ctx context.Context, sess *StreamSession, pass string, req *llm.CompletionRequest) passResult {
	ctx, span := o.tracer.Start(ctx, "model."+pass,
		attribute.String("model.id", req.Model),
		attribute.Int("model.tools", len(req.Tools)),
	)
	start := time.Now()
	res := sess.streamPass(ctx, o.provider, req)
	o.metrics.RecordModelPass(string(sess.Mode), pass, time.Since(start))
	span.SetAttributes(attribute.Bool("model.stopped", res.stopped), attribute.String("model.finish_reason", res.finishReason))
	observability.EndSpan(span, res.err)
	return res
}

// finishReason maps the model's reason to the one reported to the client. A
// tool request on the secondary pass is impossible since tools are disabled.
func finishReason(reason string) string {
	if reason == "" || reason == llm.FinishReasonToolCalls {
		return model.FinishStop
	}
	return reason
}

func (o *Orchestrator) ensureConversation(ctx context.Context, prep *PreparedExchange) (*model.Conversation, bool, error) {
	if prep.Conversation != nil {
		return prep.Conversation, false, nil
	}
	req := prep.Request
	now := o.now().UTC()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     initialTitle(req),
		UserID:    req.UserID,
		Mode:      req.Mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prep.Space != nil {
		conv.SpaceID = &prep.Space.ID
	}
	if err := o.repo.CreateConversation(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func initialTitle(req *model.ExchangeRequest) string {
	if p := strings.TrimSpace(req.Prompt); p != "" {
		return truncate(p, 50)
	}
	if req.Document != nil && req.Document.Name != "" {
		return truncate(req.Document.Name, 50)
	}
	return "New conversation"
}

type persistRecord struct {
	sessionID      string
	conversationID string
	isNew          bool
	request        *model.ExchangeRequest
	imageRecord    *model.AttachmentRecord
	modelID        string
	output         string
	media          []model.GeneratedMedia
	finishReason   string
	errMessage     string
	startedAt      time.Time
	finishedAt     time.Time
}

// persist stores the turns and the search history entry. Failures are logged only.
func (o *Orchestrator) persist(ctx context.Context, r persistRecord, logger *slog.Logger) {
	logger = logger.With("conversation_id", r.conversationID)
	req := r.request

	userMeta := model.UserMessageMetadata{Mode: req.Mode, SpaceID: req.SpaceID, Image: r.imageRecord}
	if req.Document != nil {
		userMeta.Document = &model.DocumentRecord{
			Name:      req.Document.Name,
			MimeType:  req.Document.MimeType,
			Chars:     len([]rune(req.Document.Text)),
			Truncated: req.Document.Truncated,
		}
	}
	userSaved := o.saveMessage(ctx, logger, "user_message", &model.Message{
		ConversationID: r.conversationID,
		Role:           model.RoleUser,
		Content:        req.Prompt,
		Timestamp:      r.startedAt,
	}, userMeta)

	if r.finishReason != model.FinishError || r.output != "" {
		modelID := r.modelID
		o.saveMessage(ctx, logger, "assistant_message", &model.Message{
			ConversationID: r.conversationID,
			Role:           model.RoleAssistant,
			Content:        r.output,
			Model:          &modelID,
			Timestamp:      r.finishedAt,
		}, model.AssistantMessageMetadata{
			Mode:            req.Mode,
			SessionID:       r.sessionID,
			FinishReason:    r.finishReason,
			GeneratedImages: r.media,
			Error:           r.errMessage,
		})
	}

	if strings.TrimSpace(req.Prompt) != "" {
		entry := &model.SearchHistoryEntry{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			Query:     req.Prompt,
			Mode:      req.Mode,
			CreatedAt: r.startedAt,
		}
		if err := o.repo.AddSearchHistory(ctx, entry); err != nil {
			logger.Error("Failed to save search history", "error", err)
			o.metrics.RecordPersistenceFailure("search_history")
		}
	}

	if r.isNew && userSaved && o.titles != nil {
		first := req.Prompt
		if strings.TrimSpace(first) == "" && req.Document != nil {
			first = req.Document.Name
		}
		if strings.TrimSpace(first) == "" {
			return
		}
		if err := o.titles.GenerateTitle(ctx, r.conversationID, first); err != nil {
			logger.Warn("Title generation failed", "error", err)
		}
	}
}

func (o *Orchestrator) saveMessage(ctx context.Context, logger *slog.Logger, op string, msg *model.Message, metadata any) bool {
	msg.ID = uuid.NewString()
	if b, err := json.Marshal(metadata); err == nil {
		msg.Metadata = b
	} else {
		logger.Warn("Could not encode message metadata", "error", err)
	}
	if err := o.repo.AddMessage(ctx, msg); err != nil {
		logger.Error("Failed to persist message", "operation", op, "error", err)
		o.metrics.RecordPersistenceFailure(op)
		return false
	}
	return true
}
