package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	app_errors "askflow/backend/internal/errors"
)

// UpstreamError is a backend failure normalized for clients.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
	kind    error
	err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s (%d): %v", e.Code, e.Status, e.err)
}

// Unwrap exposes both the taxonomy sentinel and the original error.
func (e *UpstreamError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Classify maps an error returned by a Provider or ImageGenerator to a
// client-facing status, code and message.
func Classify(err error) *UpstreamError {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}

	status, code, typ := upstreamStatus(err)
	switch {
	case code == "insufficient_quota" || typ == "insufficient_quota":
		return &UpstreamError{
			Status:  http.StatusPaymentRequired,
			Code:    "quota_exceeded",
			Message: "The AI service quota has been exhausted. Please try again later.",
			kind:    app_errors.ErrQuotaExceeded,
			err:     err,
		}
	case status == http.StatusTooManyRequests:
		return &UpstreamError{
			Status:  http.StatusTooManyRequests,
			Code:    "rate_limited",
			Message: "The AI service is receiving too many requests. Please retry shortly.",
			kind:    app_errors.ErrRateLimited,
			err:     err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &UpstreamError{
			Status:  http.StatusBadGateway,
			Code:    "upstream_timeout",
			Message: "The AI service took too long to respond.",
			kind:    app_errors.ErrUpstream,
			err:     err,
		}
	}
	return &UpstreamError{
		Status:  http.StatusBadGateway,
		Code:    "upstream_error",
		Message: "The AI service failed to respond. Please try again.",
		kind:    app_errors.ErrUpstream,
		err:     err,
	}
}

func upstreamStatus(err error) (status int, code, typ string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		return apiErr.HTTPStatusCode, code, apiErr.Type
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, "", ""
	}
	return 0, "", ""
}

func isRetryable(err error) bool {
	status, code, typ := upstreamStatus(err)
	if code == "insufficient_quota" || typ == "insufficient_quota" {
		return false
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
