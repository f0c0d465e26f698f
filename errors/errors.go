package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized       = fmt.Errorf("login required")
	ErrForbidden          = fmt.Errorf("operation not allowed")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrValidation         = fmt.Errorf("invalid request")
	ErrConnClosed         = fmt.Errorf("connection closed")
	ErrSendBufferFull     = fmt.Errorf("send buffer full")
)

// MapToHTTPStatus translates a service error into the status code returned
// at the handler boundary. Unknown errors stay internal.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
