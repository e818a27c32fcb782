package insight

import (
	"fmt"
	"net/http"
)

// Error is the service error taxonomy: a machine-readable type tag, a
// human message, and the HTTP status the API layer should answer with.
type Error struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// ErrInvalidRequest reports a malformed request (bad URL, oversized body).
func ErrInvalidRequest(message string, details map[string]any) *Error {
	return &Error{Type: "invalid_request", Message: message, Status: http.StatusBadRequest, Details: details}
}

// ErrPayloadTooLarge reports a request body over the configured limit.
func ErrPayloadTooLarge() *Error {
	return &Error{Type: "payload_too_large", Message: "body too large", Status: http.StatusRequestEntityTooLarge}
}

// ErrUnsupportedContentType reports a fetched resource that is not HTML.
func ErrUnsupportedContentType(contentType string) *Error {
	return &Error{
		Type:    "unsupported_content_type",
		Message: "unsupported content-type",
		Status:  http.StatusUnsupportedMediaType,
		Details: map[string]any{"content_type": contentType},
	}
}

// ErrExtractionFailed reports that too little text survived extraction.
func ErrExtractionFailed(message string) *Error {
	return &Error{Type: "parse_failed", Message: message, Status: http.StatusUnprocessableEntity}
}

// ErrRateLimited reports a rejected request.
func ErrRateLimited() *Error {
	return &Error{Type: "rate_limited", Message: "rate limit exceeded", Status: http.StatusTooManyRequests}
}

// ErrRobotsDisallowed reports a URL the target host's robots.txt forbids.
func ErrRobotsDisallowed(url string) *Error {
	return &Error{
		Type:    "robots_disallowed",
		Message: "url disallowed by robots.txt",
		Status:  http.StatusForbidden,
		Details: map[string]any{"url": url},
	}
}

// ErrUpstreamTimeout reports fetch retries exhausted on timeouts.
func ErrUpstreamTimeout(cause error) *Error {
	return &Error{Type: "timeout", Message: "upstream timeout", Status: http.StatusGatewayTimeout, cause: cause}
}

// ErrUpstreamFailure reports a non-timeout fetch failure, including HTTP
// error statuses from the origin.
func ErrUpstreamFailure(cause error) *Error {
	return &Error{Type: "upstream_error", Message: "upstream fetch failed", Status: http.StatusBadGateway, cause: cause}
}

// ErrInternal wraps anything unanticipated.
func ErrInternal(cause error) *Error {
	return &Error{Type: "internal_error", Message: "unexpected error", Status: http.StatusInternalServerError, cause: cause}
}
