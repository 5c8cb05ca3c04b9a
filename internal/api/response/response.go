package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/domain"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Error sends an error response with a machine-readable code
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// Fail maps err to a status and error body. Errors that are not a
// *domain.Error are logged and reported as a generic 500.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) && domainErr.Kind != domain.KindInternal {
		JSON(w, domainErr.HTTPStatus(), ErrorBody{
			Error:   domainErr.Message,
			Code:    domainErr.Code,
			Details: domainErr.Fields,
		})
		return
	}

	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	InternalError(w)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with data
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Unauthorized sends a 401 for an auth sentinel
func Unauthorized(w http.ResponseWriter, err *domain.Error) {
	Error(w, http.StatusUnauthorized, err.Code, err.Message)
}

// InternalError sends a 500 without leaking details
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, domain.CodeInternal, "internal server error")
}
