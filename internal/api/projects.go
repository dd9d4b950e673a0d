package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type joinRequest struct {
	Code string `json:"code"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// POST /api/project
func (h *Handler) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.engine.CreateProject(c.Request.Context(), currentUser(c), req.Title, req.Description)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondCreated(c, p)
}

// POST /api/project/join
func (h *Handler) joinTeam(c *gin.Context) {
	var req joinRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.engine.JoinTeam(c.Request.Context(), req.Code, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

// GET /api/project/:projectId
func (h *Handler) getProject(c *gin.Context) {
	respondOK(c, currentProject(c))
}

// GET /api/project/:projectId/code
func (h *Handler) getCode(c *gin.Context) {
	respondOK(c, gin.H{"code": currentProject(c).Code})
}

// GET /api/project/:projectId/team
func (h *Handler) getTeam(c *gin.Context) {
	team, err := h.engine.Team(c.Request.Context(), currentProject(c).ProjectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, team)
}

// PUT /api/project/:projectId/status
func (h *Handler) changeProjectStatus(c *gin.Context) {
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.engine.ChangeProjectStatus(c.Request.Context(), currentProject(c).ProjectID, currentUser(c), types.ProjectStatus(req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

// DELETE /api/project/:projectId/leave
func (h *Handler) leaveProject(c *gin.Context) {
	if err := h.engine.LeaveProject(c.Request.Context(), currentProject(c).ProjectID, currentUser(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"ok": true})
}

// DELETE /api/project/:projectId/team/:userId
func (h *Handler) removeFromTeam(c *gin.Context) {
	err := h.engine.RemoveFromTeam(c.Request.Context(), currentProject(c).ProjectID, currentUser(c), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"ok": true})
}

// DELETE /api/project/:projectId
func (h *Handler) deleteProject(c *gin.Context) {
	res, err := h.engine.DeleteProject(c.Request.Context(), currentProject(c).ProjectID, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
