// Package api is the HTTP surface: gin routes over the engine and the
// identity service.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/teamboard/internal/auth"
	"github.com/mesh-intelligence/teamboard/internal/engine"
	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/internal/metrics"
)

// RouterConfig carries the router's collaborators. Log, Metrics and
// Gatherer may be nil.
type RouterConfig struct {
	Engine   *engine.Engine
	Auth     *auth.Service
	Log      *logging.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Handler holds the route handlers.
type Handler struct {
	engine *engine.Engine
	auth   *auth.Service
	log    *logging.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = logging.Nop()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	log := cfg.Log.With("component", "api")
	h := &Handler{engine: cfg.Engine, auth: cfg.Auth, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log, cfg.Metrics))

	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.POST("/user/signup", h.signup)
	api.POST("/user/login", h.login)

	protected := api.Group("")
	protected.Use(RequireAuth(log, cfg.Auth))
	{
		protected.GET("/user/myprojects", h.myProjects)
		protected.GET("/user/otherprojects", h.otherProjects)
		protected.GET("/user/tasks", h.myTasks)
		protected.GET("/user/:userId", h.getUser)

		protected.POST("/project", h.createProject)
		protected.POST("/project/join", h.joinTeam)
	}

	project := protected.Group("/project/:projectId")
	project.Use(h.requireMember)
	{
		project.GET("", h.getProject)
		project.DELETE("", h.deleteProject)
		project.GET("/code", h.getCode)
		project.GET("/team", h.getTeam)
		project.PUT("/status", h.changeProjectStatus)
		project.DELETE("/leave", h.leaveProject)
		project.DELETE("/team/:userId", h.removeFromTeam)

		project.GET("/features", h.listFeatures)
		project.POST("/features", h.createFeature)
		project.PUT("/features/:featureId", h.updateFeature)
		project.DELETE("/features/:featureId", h.deleteFeature)
		project.POST("/features/:featureId/assign", h.assignFeature)
		project.GET("/features/:featureId/subtree", h.subtree)

		project.GET("/tasks", h.listTasks)
		project.POST("/tasks", h.createTask)
		project.PUT("/tasks/:taskId", h.editTask)
		project.DELETE("/tasks/:taskId", h.deleteTask)
		project.PATCH("/tasks/:taskId/status", h.changeTaskStatus)
		project.PATCH("/tasks/:taskId/assign", h.assignTask)
		project.DELETE("/tasks/:taskId/assign", h.unassignTask)
	}
	return r
}
