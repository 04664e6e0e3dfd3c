// Package httpx carries the small HTTP response helpers shared by all
// handlers: JSON responses and API errors with an HTTP status.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mugiliam/hatchreposrv/pkg/apperrors"
	"github.com/rs/zerolog/log"
)

// Error is an API error carrying the status code sent to the client.
type Error struct {
	StatusCode  int    `json:"-"`
	Description string `json:"error"`
}

func (e *Error) Error() string {
	return e.Description
}

// Send writes the error as a JSON response body.
func (e *Error) Send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

func newError(statusCode int, defaultMsg string, msg ...string) *Error {
	description := defaultMsg
	if len(msg) > 0 {
		description = msg[0]
	}
	return &Error{
		StatusCode:  statusCode,
		Description: description,
	}
}

func ErrInvalidRequest(msg ...string) *Error {
	return newError(http.StatusBadRequest, "invalid request", msg...)
}

func ErrUnauthorized(msg ...string) *Error {
	return newError(http.StatusUnauthorized, "unauthorized", msg...)
}

func ErrForbidden(msg ...string) *Error {
	return newError(http.StatusForbidden, "forbidden", msg...)
}

func ErrNotFound(msg ...string) *Error {
	return newError(http.StatusNotFound, "not found", msg...)
}

func ErrApplicationError(msg ...string) *Error {
	return newError(http.StatusInternalServerError, "internal error", msg...)
}

// SendJsonRsp writes v as the JSON response body with the given status.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to encode json response")
	}
}

// SendError maps an error to its API representation. apperrors carry their
// own status code; anything else is an internal error.
func SendError(ctx context.Context, w http.ResponseWriter, err error) {
	if httpErr, ok := err.(*Error); ok {
		httpErr.Send(w)
		return
	}
	if appErr, ok := err.(apperrors.Error); ok {
		statusCode := appErr.StatusCode()
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		(&Error{StatusCode: statusCode, Description: appErr.ErrorAll()}).Send(w)
		return
	}
	log.Ctx(ctx).Error().Err(err).Msg("unclassified error")
	ErrApplicationError().Send(w)
}
