package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Hierarchy maintains the feature forest of each project: parent links stay
// inside one project and never form a cycle.
type Hierarchy struct{}

// CreateFeature inserts an unassigned feature under projectID. A non-empty
// parentID must name a feature of the same project (ErrNotFound otherwise).
func (Hierarchy) CreateFeature(ctx context.Context, tx types.Tx, projectID, name, parentID string) (*types.Feature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.InvalidArgumentf("feature name is empty")
	}
	if _, err := tx.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if parentID != "" {
		parent, err := tx.GetFeature(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, types.NotFoundf("feature %s in project %s", parentID, projectID)
		}
	}
	f := &types.Feature{
		ProjectID:       projectID,
		ParentFeatureID: parentID,
		Name:            name,
	}
	if err := tx.InsertFeature(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RenameOrReparent applies patch to the feature. A new parent that is the
// feature itself, one of its descendants, or a feature of another project is
// rejected with ErrInvalidArgument. An empty parent moves the feature to the
// root.
func (h Hierarchy) RenameOrReparent(ctx context.Context, tx types.Tx, featureID string, patch types.FeaturePatch) (*types.Feature, error) {
	f, err := tx.GetFeature(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return f, nil
	}
	if name, ok := patch.Name.Get(); ok {
		if err := f.Rename(strings.TrimSpace(name)); err != nil {
			return nil, err
		}
	}
	if parentID, ok := patch.ParentFeatureID.Get(); ok && parentID != f.ParentFeatureID {
		if err := h.checkParent(ctx, tx, f, parentID); err != nil {
			return nil, err
		}
		f.ParentFeatureID = parentID
	}
	f.UpdatedAt = time.Now().UTC()
	if err := tx.UpdateFeature(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (h Hierarchy) checkParent(ctx context.Context, tx types.Tx, f *types.Feature, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == f.FeatureID {
		return types.InvalidArgumentf("feature %s cannot be its own parent", f.FeatureID)
	}
	parent, err := tx.GetFeature(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != f.ProjectID {
		return types.InvalidArgumentf("feature %s belongs to project %s, not %s", parentID, parent.ProjectID, f.ProjectID)
	}
	subtree, err := h.EnumerateSubtree(ctx, tx, f.FeatureID)
	if err != nil {
		return err
	}
	for _, id := range subtree {
		if id == parentID {
			return types.InvalidArgumentf("moving feature %s under its descendant %s would create a cycle", f.FeatureID, parentID)
		}
	}
	return nil
}

// EnumerateSubtree returns featureID followed by every feature transitively
// parented under it, level by level. The walk is iterative and keeps a
// visited set, so a corrupted cycle cannot make it loop.
func (Hierarchy) EnumerateSubtree(ctx context.Context, tx types.Tx, featureID string) ([]string, error) {
	root, err := tx.GetFeature(ctx, featureID)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{root.FeatureID: true}
	ids := []string{root.FeatureID}
	frontier := []string{root.FeatureID}
	for len(frontier) > 0 {
		children, err := tx.FindFeatures(ctx, types.FeatureFilter{
			ProjectID: root.ProjectID,
			ParentIDs: frontier,
		})
		if err != nil {
			return nil, fmt.Errorf("listing children of %d features: %w", len(frontier), err)
		}
		next := make([]string, 0, len(children))
		for _, c := range children {
			if visited[c.FeatureID] {
				continue
			}
			visited[c.FeatureID] = true
			ids = append(ids, c.FeatureID)
			next = append(next, c.FeatureID)
		}
		frontier = next
	}
	return ids, nil
}
