package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"askflow/backend/internal/interfaces"
	"askflow/backend/internal/service"
)

// ChatHandler serves conversations, spaces, search history and settings.
type ChatHandler struct {
	chats    interfaces.ChatService
	spaces   interfaces.SpaceService
	settings interfaces.SettingsService
}

func NewChatHandler(chats interfaces.ChatService, spaces interfaces.SpaceService, settings interfaces.SettingsService) *ChatHandler {
	return &ChatHandler{chats: chats, spaces: spaces, settings: settings}
}

// GetSettings handles GET /api/v1/settings.
func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles POST /api/v1/settings.
func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings service.Settings
	if err := decodeJSON(r, &settings); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.settings.Save(r.Context(), &settings); err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Settings updated")
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetChats handles GET /api/v1/chats.
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chats.ListConversations(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, convs)
}

// GetChat handles GET /api/v1/chats/{chatID}.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	full, err := h.chats.GetConversation(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "chatID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, full)
}

// UpdateChatTitle handles PUT /api/v1/chats/{chatID}/title.
func (h *ChatHandler) UpdateChatTitle(w http.ResponseWriter, r *http.Request) {
	var req UpdateTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.chats.UpdateTitle(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "chatID"), req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleDeleteChat handles DELETE /api/v1/chats/{chatID}.
func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chats.DeleteConversation(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "chatID")); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /api/v1/history.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.chats.ListHistory(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// GetSpaces handles GET /api/v1/spaces.
func (h *ChatHandler) GetSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.spaces.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, spaces)
}

// CreateSpace handles POST /api/v1/spaces.
func (h *ChatHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req CreateSpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	space, err := h.spaces.Create(r.Context(), UserIDFromContext(r.Context()), req.Name, req.Instruction)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, space)
}

// GetSpace handles GET /api/v1/spaces/{spaceID}.
func (h *ChatHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.spaces.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "spaceID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, space)
}
