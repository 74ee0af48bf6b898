package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	KindInvalidInput = "INVALID_INPUT"
	KindValidation   = "VALIDATION_ERROR"
	KindUnauthorized = "UNAUTHORIZED"
	KindNotFound     = "NOT_FOUND"
	KindTooLarge     = "PAYLOAD_TOO_LARGE"
	KindUpstream     = "UPSTREAM_ERROR"
	KindInternal     = "INTERNAL_ERROR"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Kind    string
	Message string
	Details map[string]any
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

func (e *HTTPError) WithDetails(details map[string]any) *HTTPError {
	e.Details = details
	return e
}

func InvalidInput(message string) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Kind: KindInvalidInput, Message: message}
}

func Validation(message string, details map[string]any) *HTTPError {
	return &HTTPError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: message, Details: details}
}

func Unauthorized(message string) *HTTPError {
	return &HTTPError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: message}
}

func NotFound(resource string) *HTTPError {
	return &HTTPError{Code: http.StatusNotFound, Kind: KindNotFound, Message: resource + " not found"}
}

func PayloadTooLarge(message string) *HTTPError {
	return &HTTPError{Code: http.StatusRequestEntityTooLarge, Kind: KindTooLarge, Message: message}
}

func Upstream(message string, err error) *HTTPError {
	return &HTTPError{Code: http.StatusBadGateway, Kind: KindUpstream, Message: message, Err: err}
}

func Internal(message string, err error) *HTTPError {
	return &HTTPError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: message, Err: err}
}

// As returns err as an *HTTPError, wrapping anything unknown as an internal error
// so raw causes never reach the client.
func As(err error) *HTTPError {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}
	return Internal("An unexpected error occurred", err)
}

type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, err error) {
	httpErr := As(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   httpErr.Message,
		Code:    httpErr.Kind,
		Details: httpErr.Details,
	})
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestEntityTooLarge:
		return KindTooLarge
	case http.StatusBadGateway:
		return KindUpstream
	default:
		return KindInternal
	}
}
