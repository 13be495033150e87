package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/websocket"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/extract"
	"askflow/backend/internal/interfaces"
	"askflow/backend/internal/model"
)

// ExchangeHandler serves streamed exchanges over SSE and WebSocket, and the
// stop endpoint.
type ExchangeHandler struct {
	orchestrator   interfaces.Orchestrator
	extractor      *extract.Extractor
	maxUploadBytes int64
	upgrader       websocket.Upgrader
}

func NewExchangeHandler(orchestrator interfaces.Orchestrator, extractor *extract.Extractor, maxUploadBytes int64) *ExchangeHandler {
	return &ExchangeHandler{
		orchestrator:   orchestrator,
		extractor:      extractor,
		maxUploadBytes: maxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// HandleStreamMessage runs an exchange and streams it as Server-Sent Events.
// Validation, authorization and lookup failures are plain HTTP errors; once
// the stream is open every failure is an in-band error event.
func (h *ExchangeHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	req.UserID = UserIDFromContext(r.Context())

	prep, err := h.orchestrator.Prepare(r.Context(), req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	sink, err := NewSSESink(w)
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.orchestrator.Stream(r.Context(), prep, sink)
}

// HandleStop cancels a running exchange owned by the caller.
func (h *ExchangeHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	result, err := h.orchestrator.Stop(r.Context(), UserIDFromContext(r.Context()), req.SessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// HandleWebSocket runs an exchange over a WebSocket. The first client frame is
// the JSON exchange request; later frames may be {"type":"stop","sessionId":...}.
// Closing the socket cancels the exchange.
func (h *ExchangeHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(wsMaxPayloadBytes)

	sink := NewWebSocketSink(conn)
	defer func() { _ = sink.Close() }()

	var body ExchangeRequest
	if err := conn.ReadJSON(&body); err != nil {
		sendPreflightError(sink, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	req, err := body.toModel()
	if err != nil {
		sendPreflightError(sink, err)
		return
	}
	req.UserID = userID

	prep, err := h.orchestrator.Prepare(r.Context(), req)
	if err != nil {
		sendPreflightError(sink, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readControlFrames(ctx, cancel, conn, userID)

	h.orchestrator.Stream(ctx, prep, sink)
}

func (h *ExchangeHandler) readControlFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, userID string) {
	defer cancel()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var frame wsClientFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "stop" {
			continue
		}
		if _, err := h.orchestrator.Stop(ctx, userID, frame.SessionID); err != nil {
			slog.Debug("WebSocket stop request rejected", "session_id", frame.SessionID, "error", err)
		}
	}
}

// sendPreflightError reports a failure that happened before the exchange
// started, using the same error/close pair as an in-band failure.
func sendPreflightError(sink *WebSocketSink, err error) {
	status, message := errorStatus(err)
	slog.Warn("Rejecting WebSocket exchange", "status_code", status, "internal_error", err)
	_ = sink.Emit(model.Event{Type: model.EventError, Data: model.ErrorData{Message: message, Status: status}})
	_ = sink.Emit(model.Event{Type: model.EventClose, Data: model.CloseData{}})
}

func (b *ExchangeRequest) toModel() (*model.ExchangeRequest, error) {
	if err := validateRequest(b); err != nil {
		return nil, err
	}
	return &model.ExchangeRequest{
		Prompt:         b.Prompt,
		ConversationID: b.ConversationID,
		Mode:           model.ParseMode(b.Mode),
		SpaceID:        b.SpaceID,
	}, nil
}

// parseRequest reads a JSON body or a multipart form with optional image and
// document parts.
func (h *ExchangeHandler) parseRequest(r *http.Request) (*model.ExchangeRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body ExchangeRequest
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return body.toModel()
	}

	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", app_errors.ErrValidation, h.maxUploadBytes)
		}
		return nil, fmt.Errorf("%w: invalid multipart form", app_errors.ErrValidation)
	}

	body := ExchangeRequest{
		Prompt:         r.FormValue("prompt"),
		ConversationID: r.FormValue("conversationId"),
		Mode:           r.FormValue("mode"),
		SpaceID:        r.FormValue("spaceId"),
	}
	req, err := body.toModel()
	if err != nil {
		return nil, err
	}

	if header, data, err := readPart(r, "image"); err != nil {
		return nil, err
	} else if data != nil {
		req.Image = &model.Attachment{Name: header.Filename, MimeType: detectType(data), Data: data}
	}

	if header, data, err := readPart(r, "document"); err != nil {
		return nil, err
	} else if data != nil {
		doc, err := h.extractor.Extract(header.Filename, data, header.Header.Get("Content-Type"))
		if err != nil {
			return nil, err
		}
		req.Document = doc
	}
	return req, nil
}

// readPart returns the named file part, or nil data if it is absent.
func readPart(r *http.Request, field string) (*multipart.FileHeader, []byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: could not read %s", app_errors.ErrValidation, field)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", app_errors.ErrValidation, field)
	}
	return header, data, nil
}

// detectType sniffs the content type, ignoring whatever the client declared.
func detectType(data []byte) string {
	t, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return t
}
