package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure that already knows how it should surface over HTTP.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code, msg string) *Error {
	return New(http.StatusNotFound, code, errors.New(msg))
}

func Forbidden(code, msg string) *Error {
	return New(http.StatusForbidden, code, errors.New(msg))
}

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

// StatusOf reports the HTTP status carried by err, or 500 for anything else.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries the given status.
func Is(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == status
}
