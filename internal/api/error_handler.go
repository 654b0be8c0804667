package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error categories to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
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
	// Echo's own errors (router 404/405, oversized bodies, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpErrorCode(he.Code)}
	}

	// Internal failures may still wrap a domain error; check that first.
	if !errors.Is(err, domain.ErrInternal) {
		var de *domain.Error
		if errors.As(err, &de) {
			if status, ok := statusFor(de.Kind); ok {
				return status, errorResponse{Error: de.Message, Code: de.Code}
			}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"}
}

// statusFor maps an error category to its HTTP status.
func statusFor(kind error) (int, bool) {
	switch kind {
	case domain.ErrValidation, domain.ErrConflict:
		return http.StatusBadRequest, true
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized, true
	case domain.ErrForbiddenKind:
		return http.StatusForbidden, true
	case domain.ErrNotFound:
		return http.StatusNotFound, true
	case domain.ErrStateConflict:
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "route_not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "http_error"
	}
}
