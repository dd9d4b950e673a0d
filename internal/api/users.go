package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      *types.User `json:"user"`
}

// public strips the password hash before a user leaves the server.
func public(u *types.User) *types.User {
	out := *u
	out.PasswordHash = ""
	return &out
}

// POST /api/user/signup
func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	u, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondCreated(c, public(u))
}

// POST /api/user/login
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, loginResponse{
		Token:     token,
		ExpiresIn: int64(h.auth.TokenTTL().Seconds()),
		User:      public(u),
	})
}

// GET /api/user/myprojects
func (h *Handler) myProjects(c *gin.Context) {
	projects, err := h.engine.UserProjects(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, projects)
}

// GET /api/user/otherprojects
func (h *Handler) otherProjects(c *gin.Context) {
	projects, err := h.engine.OtherProjects(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, projects)
}

// GET /api/user/tasks
func (h *Handler) myTasks(c *gin.Context) {
	tasks, err := h.engine.UserTasks(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, tasks)
}

// GET /api/user/:userId
func (h *Handler) getUser(c *gin.Context) {
	u, err := h.engine.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, public(u))
}
