package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindInvalidArgument:
		return http.StatusBadRequest
	case types.KindForbidden:
		return http.StatusForbidden
	case types.KindConflict:
		return http.StatusConflict
	case types.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case types.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an error envelope. Internal errors are logged
// and reported without detail.
func respondError(c *gin.Context, log *logging.Logger, err error) {
	kind := types.KindOf(err)
	msg := err.Error()
	if kind == types.KindInternal {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(statusFor(kind), ErrorEnvelope{Error: APIError{Message: msg, Code: kind}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
