package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches application errors by status code and message so that
// wrapped copies of a sentinel still compare equal to it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of base carrying err as its cause. Sentinels are
// never mutated.
func Wrap(base *Error, err error) *Error {
	return New(base.Code, base.Message, err)
}

// Common error types
var (
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrValidation     = New(http.StatusBadRequest, "Validation error", nil)
)

// Authentication error types
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid login credentials", nil)
	ErrLoginRequired      = New(http.StatusUnauthorized, "Please login to add items to cart", nil)
	ErrEmailTaken         = New(http.StatusConflict, "User already registered", nil)
	ErrLoginInProgress    = New(http.StatusConflict, "Another login is in progress", nil)
)

// Storefront error types
var (
	ErrMaterialNotFound = New(http.StatusNotFound, "Material not found", nil)
	ErrInvalidAPIKey    = New(http.StatusBadRequest, "Invalid API key", nil)
	ErrUpstream         = New(http.StatusBadGateway, "Upstream service error", nil)
)

// From converts any error into an *Error, defaulting to a 500 that keeps
// the original as its cause.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Error middleware for Gin
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			body := gin.H{"code": appErr.Code, "error": appErr.Message}
			// client errors carry their cause, server errors do not leak it
			if appErr.Code < http.StatusInternalServerError && appErr.Err != nil {
				body["details"] = appErr.Err.Error()
			}
			c.JSON(appErr.Code, body)
			c.Abort()
		}
	}
}
