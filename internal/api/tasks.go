package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FeatureID   string `json:"feature_id"`
}

type editTaskRequest struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Status      json.RawMessage `json:"status"`
	AssignedTo  json.RawMessage `json:"assigned_to"`
}

func (r editTaskRequest) patch() (types.TaskPatch, error) {
	var (
		p   types.TaskPatch
		err error
	)
	if p.Title, err = optString(r.Title); err != nil {
		return p, err
	}
	if p.Description, err = optString(r.Description); err != nil {
		return p, err
	}
	status, err := optString(r.Status)
	if err != nil {
		return p, err
	}
	if s, ok := status.Get(); ok {
		p.Status = types.Some(types.TaskStatus(s))
	}
	if p.AssignedTo, err = optString(r.AssignedTo); err != nil {
		return p, err
	}
	return p, nil
}

// projectTask loads :taskId and checks it belongs to the project in the
// path. It responds on failure.
func (h *Handler) projectTask(c *gin.Context) (*types.Task, bool) {
	t, err := h.engine.GetTask(c.Request.Context(), c.Param("taskId"))
	if err == nil && t.ProjectID != currentProject(c).ProjectID {
		err = types.NotFoundf("task %s in project %s", t.TaskID, currentProject(c).ProjectID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return t, true
}

// GET /api/project/:projectId/tasks
func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.engine.ListProjectTasks(c.Request.Context(), currentProject(c).ProjectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, tasks)
}

// POST /api/project/:projectId/tasks
func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	t, err := h.engine.CreateTask(c.Request.Context(), currentProject(c).ProjectID, req.Title, req.Description, req.FeatureID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondCreated(c, t)
}

// PUT /api/project/:projectId/tasks/:taskId
func (h *Handler) editTask(c *gin.Context) {
	t, ok := h.projectTask(c)
	if !ok {
		return
	}
	var req editTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	updated, err := h.engine.EditTask(c.Request.Context(), t.TaskID, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, updated)
}

// DELETE /api/project/:projectId/tasks/:taskId
func (h *Handler) deleteTask(c *gin.Context) {
	t, ok := h.projectTask(c)
	if !ok {
		return
	}
	if err := h.engine.DeleteTask(c.Request.Context(), t.TaskID); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"ok": true})
}

// PATCH /api/project/:projectId/tasks/:taskId/status
func (h *Handler) changeTaskStatus(c *gin.Context) {
	t, ok := h.projectTask(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	updated, err := h.engine.ChangeTaskStatus(c.Request.Context(), t.TaskID, currentUser(c), types.TaskStatus(req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, updated)
}

// PATCH /api/project/:projectId/tasks/:taskId/assign
func (h *Handler) assignTask(c *gin.Context) {
	t, ok := h.projectTask(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	updated, err := h.engine.AssignTask(c.Request.Context(), t.TaskID, req.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, updated)
}

// DELETE /api/project/:projectId/tasks/:taskId/assign
func (h *Handler) unassignTask(c *gin.Context) {
	t, ok := h.projectTask(c)
	if !ok {
		return
	}
	updated, err := h.engine.UnassignTask(c.Request.Context(), t.TaskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, updated)
}
