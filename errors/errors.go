// Package errors carries HTTP status alongside a failure so handlers can
// render it.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(op string, code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Op: op, Err: err}
}

func InvalidInput(op string, err error, message string) *AppError {
	return New(op, http.StatusBadRequest, message, err)
}

func NotFound(op string, err error, message string) *AppError {
	return New(op, http.StatusNotFound, message, err)
}

func Conflict(op string, err error, message string) *AppError {
	return New(op, http.StatusConflict, message, err)
}

func Internal(op string, err error, message string) *AppError {
	return New(op, http.StatusInternalServerError, message, err)
}

func Unavailable(op string, err error, message string) *AppError {
	return New(op, http.StatusServiceUnavailable, message, err)
}

// ErrRateLimitExceeded is returned when a client exceeds the request rate.
var ErrRateLimitExceeded = &AppError{Code: http.StatusTooManyRequests, Message: "Rate limit exceeded", Op: "ratelimit"}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status for err, 500 when it carries none.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
