package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/internal/metrics"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const (
	userIDKey  = "user_id"
	projectKey = "project"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's user id on the context.
func RequireAuth(log *logging.Logger, v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.VerifyToken(bearerToken(c))
		if err != nil {
			log.Debug("token rejected", "path", c.FullPath(), "error", err)
			respondError(c, log, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// currentUser returns the id set by RequireAuth.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequestLogger logs one line per request and counts it in m.
func RequestLogger(log *logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveRequest(c.Request.Method, route, status)

		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := currentUser(c); id != "" {
			fields = append(fields, "user_id", id)
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// requireMember loads the :projectId project and rejects callers who are not
// on its team.
func (h *Handler) requireMember(c *gin.Context) {
	p, err := h.engine.GetProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !p.IsMember(currentUser(c)) {
		respondError(c, h.log, types.Forbiddenf("not a member of project %s", p.ProjectID))
		return
	}
	c.Set(projectKey, p)
	c.Next()
}

func currentProject(c *gin.Context) *types.Project {
	p, _ := c.MustGet(projectKey).(*types.Project)
	return p
}
