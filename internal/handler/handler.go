// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/middleware"
)

// Handler serves the router-level fallbacks.
type Handler struct {
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// NotFound handles unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apperr.Write(w, apperr.NotFound(
		"The requested resource was not found.",
		"Check that the URL is correct.",
	))
}

// MethodNotAllowed handles known routes called with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apperr.Write(w, apperr.MethodNotAllowed())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes err as an API error body. Server-side failures are
// logged with their cause; the body never carries it.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.Write(w, err)
	if appErr.StatusCode() < http.StatusInternalServerError {
		return
	}
	logger.ErrorContext(r.Context(), "request_failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("error_name", appErr.Kind.String()),
		slog.Any("error", err),
	)
}

// decodeJSON reads a JSON body into dst. Malformed bodies, trailing data and
// oversized bodies are reported as a ValidationError.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return middleware.BodyTooLarge()
		}
		return invalidJSON()
	}
	if dec.More() {
		return invalidJSON()
	}
	return nil
}

func invalidJSON() *apperr.Error {
	return apperr.Validation(
		"The request body is not valid JSON.",
		"Send a valid JSON object in the request body.",
	)
}
