// Package respond writes JSON responses and maps apperr kinds to HTTP status codes.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// StatusOf returns the HTTP status for an error's kind.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error aborts the request with err. Unexpected errors carry their cause
// only in gin debug mode.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	body := ErrorBody{
		Code:    apperr.KindOf(err).String(),
		Message: apperr.MessageOf(err),
	}
	if apperr.KindOf(err) == apperr.KindUnexpected && gin.IsDebugging() {
		body.Detail = err.Error()
	}
	c.AbortWithStatusJSON(StatusOf(err), gin.H{"error": body})
}

// Bind reports a malformed request body as a validation error.
func Bind(c *gin.Context, err error) {
	Error(c, apperr.Validation("invalid request: %v", err))
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
