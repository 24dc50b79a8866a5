package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoToken           = errors.New("no session token")
	ErrTokenExpired      = errors.New("session token expired")
	ErrSessionEnded      = errors.New("session ended while request was in flight")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("access forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a failed round-trip to the backend. Status is zero when no
// response was received at all.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	case e.Message != "":
		return "api: " + e.Message
	case e.Err != nil && e.Status == 0:
		return "api: transport: " + e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("api: %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("api: status %d", e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto the domain sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// IsNetwork reports whether the request never got a response.
func (e *APIError) IsNetwork() bool { return e.Status == 0 }

// ActionError is what every public session or dashboard action returns on
// failure. Error() is the human-readable message meant for display.
type ActionError struct {
	Op      string
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }

func (e *ActionError) Unwrap() error { return e.Err }

// NewActionError builds an ActionError whose message is the backend's error
// text when there is one, otherwise fallback.
func NewActionError(op, fallback string, err error) *ActionError {
	msg := BackendMessage(err)
	if msg == "" {
		msg = fallback
	}
	return &ActionError{Op: op, Message: msg, Err: err}
}

// BackendMessage extracts the backend's "error" field from err, if any.
func BackendMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
