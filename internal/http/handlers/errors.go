package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/storefront-api/internal/auth"
	"github.com/hongminglow/storefront-api/internal/guard"
	"github.com/hongminglow/storefront-api/internal/http/respond"
	"github.com/hongminglow/storefront-api/internal/middleware"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

// Client-facing messages shared across resources.
const (
	msgForbidden          = "Forbidden Resource"
	msgInvalidCredentials = "Email or password not valid"
	msgPasswordMismatch   = "Passwords doesn't match!"
	msgUserExists         = "User already exists!"
	msgInvalidProduct     = "Invalid ProductId!"
	msgInsufficientStock  = "Insufficient product quantity!"
	msgBrokenReference    = "Referenced resource does not exist or is still in use"
	msgInvalidJSON        = "invalid JSON payload"
	msgInternal           = "Internal server error"
)

// clientError is a failure the client can act on. Its messages are returned verbatim.
type clientError struct {
	status   int
	messages []string
}

func (e *clientError) Error() string {
	return strings.Join(e.messages, "; ")
}

func newClientError(status int, messages ...string) error {
	return &clientError{status: status, messages: messages}
}

// forbidden is the single answer for "does not exist" and "owned by someone else".
func forbidden() error {
	return newClientError(http.StatusForbidden, msgForbidden)
}

func badRequest(messages ...string) error {
	return newClientError(http.StatusBadRequest, messages...)
}

// writeError translates err into a status code and envelope. Anything it does
// not recognise is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ce     *clientError
		denial *guard.Denial
	)
	switch {
	case errors.As(err, &ce):
		respond.Error(w, ce.status, ce.messages...)
	case errors.As(err, &denial):
		respond.Error(w, denial.Status(), denial.Message)
	case errors.Is(err, query.ErrInvalidQuerySyntax), errors.Is(err, query.ErrUnknownField):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, auth.ErrPasswordMismatch):
		respond.Error(w, http.StatusBadRequest, msgPasswordMismatch)
	case errors.Is(err, auth.ErrUserExists):
		respond.Error(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, storage.ErrReference):
		respond.Error(w, http.StatusBadRequest, msgBrokenReference)
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "resource already exists")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.Any("error", err),
		)
		respond.Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// WriteDenial is the guard.DenyFunc used by the router.
func WriteDenial(w http.ResponseWriter, _ *http.Request, d *guard.Denial) {
	respond.Error(w, d.Status(), d.Message)
}
