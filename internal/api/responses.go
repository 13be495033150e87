package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "askflow/backend/internal/errors"
)

// This file contains shared DTOs (Data Transfer Objects) for API requests and
// responses and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response, typically for operations
// like POST, PUT, DELETE that don't need to return a full resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// UpdateTitleRequest is the DTO for the manual conversation rename endpoint.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=100"`
}

// CreateSpaceRequest is the DTO for creating a space.
type CreateSpaceRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Instruction string `json:"instruction" validate:"max=4000"`
}

// ExchangeRequest is the JSON body of a streamed exchange. The multipart form
// variant carries the same fields plus the image and document parts.
type ExchangeRequest struct {
	Prompt         string `json:"prompt" validate:"max=32000"`
	ConversationID string `json:"conversationId" validate:"omitempty,max=64"`
	Mode           string `json:"mode" validate:"omitempty,oneof=quick think research"`
	SpaceID        string `json:"spaceId" validate:"omitempty,max=64"`
}

// StopRequest is the DTO for stopping a running exchange.
type StopRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=64"`
}

// errorStatus maps business-layer errors to an HTTP status code and a client
// message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound, "The requested resource was not found."
	case errors.Is(err, app_errors.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, app_errors.ErrValidation):
		// Validation messages from the service layer are already user-friendly.
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app_errors.ErrConflict):
		return http.StatusConflict, "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication is required."
	case errors.Is(err, app_errors.ErrPermission):
		return http.StatusForbidden, "You do not have permission to perform this action."
	case errors.Is(err, app_errors.ErrQuotaExceeded):
		return http.StatusPaymentRequired, "The AI service quota has been exhausted."
	case errors.Is(err, app_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "The AI service is receiving too many requests."
	case errors.Is(err, app_errors.ErrUpstream):
		return http.StatusBadGateway, "The AI service failed to respond."
	}
	// Anything else is an internal error. Details stay in the logs.
	return http.StatusInternalServerError, "An unexpected internal server error occurred."
}

// respondWithError is the centralized error handling function for the API layer.
func respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := errorStatus(err)

	// The original, more detailed error is logged for debugging purposes,
	// while a generic message is sent to the client.
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON is a low-level helper for marshaling a payload to JSON
// and writing it to the http.ResponseWriter with a given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// decodeJSON decodes and validates a request body.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation)
	}
	return validateRequest(dst)
}
