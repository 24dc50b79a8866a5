package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/api/handler"
	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

// errorResponse is the canonical error envelope for all gateway errors.
type errorResponse struct {
	Error      string            `json:"error"`
	FormErrors map[string]string `json:"form_errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain and backend errors to HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}, plus
//     "form_errors" when a form action recorded per-field messages.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, guards, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	body := errorResponse{Error: message(err)}

	var fe *handler.FormError
	if errors.As(err, &fe) && len(fe.Fields) > 0 {
		body.FormErrors = fe.Fields
	}
	var vErrs validation.FieldErrors
	if body.FormErrors == nil && errors.As(err, &vErrs) {
		body.FormErrors = vErrs
	}

	var apiErr *domain.APIError
	isAPI := errors.As(err, &apiErr)

	switch {
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, body
	case isAPI && (apiErr.IsNetwork() || apiErr.Status >= http.StatusInternalServerError):
		return http.StatusBadGateway, body
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNoToken),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrSessionEnded):
		return http.StatusUnauthorized, body
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, body
	case isAPI:
		return apiErr.Status, body
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// message prefers the display message of an action error.
func message(err error) string {
	var ae *domain.ActionError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if msg := domain.BackendMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}
