package domain

import "net/http"

// ErrorKind classifies a domain error for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindConflict
	KindNotFound
	KindRateLimited
)

// Machine-readable error codes returned to clients
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeTokenMissing        = "TOKEN_MISSING"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeNotFound            = "NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

// Error is the error type shared by services and handlers.
// Two errors match under errors.Is when kind and code agree.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same kind and code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// HTTPStatus maps the error kind to a status code
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrValidation = &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "validation failed"}

	ErrDuplicateEmail      = &Error{Kind: KindConflict, Code: CodeEmailExists, Message: "email already registered"}
	ErrInvalidCredentials  = &Error{Kind: KindAuth, Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrTokenExpired        = &Error{Kind: KindAuth, Code: CodeTokenExpired, Message: "token has expired"}
	ErrTokenInvalid        = &Error{Kind: KindAuth, Code: CodeTokenInvalid, Message: "invalid token"}
	ErrTokenMissing        = &Error{Kind: KindAuth, Code: CodeTokenMissing, Message: "missing authorization token"}
	ErrInvalidRefreshToken = &Error{Kind: KindAuth, Code: CodeInvalidRefreshToken, Message: "invalid or expired refresh token"}

	ErrNotFound        = &Error{Kind: KindNotFound, Code: CodeNotFound, Message: "not found"}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Code: CodeUserNotFound, Message: "user not found"}
	ErrProfileNotFound = &Error{Kind: KindNotFound, Code: CodeProfileNotFound, Message: "profile not found"}

	ErrRateLimited = &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: "rate limit exceeded"}
)

// NewValidationError builds a validation error with per-field messages
func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidationFailed,
		Message: message,
		Fields:  fields,
	}
}
