// Package respond defines the uniform response envelope and the error
// taxonomy shared by every service and handler. Services fail with one of
// the five error kinds; the echo error handler formats them and nothing
// else. Handlers never invent new kinds.
package respond

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Kind classifies an error into one of the outcomes the boundary layer
// knows how to format.
type Kind int

const (
	KindValidation Kind = iota
	KindUnauthenticated
	KindAccessDenied
	KindNotFound
	KindInternal
)

// Error is the tagged result every core operation fails with.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a validation error carrying every offending field.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, message string) *Error {
	return Validation(FieldError{Field: field, Message: message})
}

// Unauthenticated marks a request that carried no valid identity.
func Unauthenticated(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Denied marks an authenticated but not entitled request. The external
// message is fixed so that ownership of other users' data is not revealed.
func Denied() *Error {
	return &Error{Kind: KindAccessDenied, Message: "Access denied"}
}

// NotFound marks an id that did not resolve.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Internal wraps a store or dependency failure. The cause is logged by the
// error handler but never echoed to the caller.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", cause: cause}
}

// Internalf wraps a failure with operation context.
func Internalf(format string, args ...interface{}) *Error {
	return Internal(fmt.Errorf(format, args...))
}

// StatusCode maps an error kind to its HTTP status.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// OK writes a 200 success envelope.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes a 200 envelope with no payload.
func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

// HTTPErrorHandler returns an echo error handler that maps the taxonomy
// (and stray echo.HTTPErrors) onto the envelope.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		env := Envelope{Success: false, Message: "internal server error"}

		var appErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.StatusCode()
			env.Message = appErr.Message
			env.Errors = appErr.Fields
			if appErr.Kind == KindInternal {
				logger.Error().Err(appErr.cause).
					Str("path", c.Request().URL.Path).
					Msg("internal error")
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			env.Message = fmt.Sprintf("%v", httpErr.Message)
		default:
			logger.Error().Err(err).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		if werr := c.JSON(status, env); werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
