package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

type createFeatureRequest struct {
	Name            string `json:"name"`
	ParentFeatureID string `json:"parent_feature_id"`
}

// updateFeatureRequest distinguishes an absent parent (unchanged) from a
// null one (move to root).
type updateFeatureRequest struct {
	Name            json.RawMessage `json:"name"`
	ParentFeatureID json.RawMessage `json:"parent_feature_id"`
}

type assignRequest struct {
	UserID string `json:"user_id"`
}

// projectFeature loads :featureId and checks it belongs to the project in
// the path. It responds on failure.
func (h *Handler) projectFeature(c *gin.Context) (*types.Feature, bool) {
	f, err := h.engine.GetFeature(c.Request.Context(), c.Param("featureId"))
	if err == nil && f.ProjectID != currentProject(c).ProjectID {
		err = types.NotFoundf("feature %s in project %s", f.FeatureID, currentProject(c).ProjectID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return f, true
}

// GET /api/project/:projectId/features
func (h *Handler) listFeatures(c *gin.Context) {
	features, err := h.engine.ListFeatures(c.Request.Context(), currentProject(c).ProjectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, features)
}

// POST /api/project/:projectId/features
func (h *Handler) createFeature(c *gin.Context) {
	var req createFeatureRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	f, err := h.engine.CreateFeature(c.Request.Context(), currentProject(c).ProjectID, req.Name, req.ParentFeatureID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondCreated(c, f)
}

// PUT /api/project/:projectId/features/:featureId
func (h *Handler) updateFeature(c *gin.Context) {
	f, ok := h.projectFeature(c)
	if !ok {
		return
	}
	var req updateFeatureRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	var patch types.FeaturePatch
	var err error
	if patch.Name, err = optString(req.Name); err != nil {
		respondError(c, h.log, err)
		return
	}
	if patch.ParentFeatureID, err = optString(req.ParentFeatureID); err != nil {
		respondError(c, h.log, err)
		return
	}
	updated, err := h.engine.RenameOrReparent(c.Request.Context(), f.FeatureID, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, updated)
}

// DELETE /api/project/:projectId/features/:featureId
func (h *Handler) deleteFeature(c *gin.Context) {
	f, ok := h.projectFeature(c)
	if !ok {
		return
	}
	res, err := h.engine.DeleteFeature(c.Request.Context(), f.FeatureID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// POST /api/project/:projectId/features/:featureId/assign
func (h *Handler) assignFeature(c *gin.Context) {
	f, ok := h.projectFeature(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.engine.AssignFeature(c.Request.Context(), f.FeatureID, req.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GET /api/project/:projectId/features/:featureId/subtree
func (h *Handler) subtree(c *gin.Context) {
	f, ok := h.projectFeature(c)
	if !ok {
		return
	}
	features, err := h.engine.Subtree(c.Request.Context(), f.FeatureID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, features)
}
