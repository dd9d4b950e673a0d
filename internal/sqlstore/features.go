package sqlstore

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const featureColumns = "feature_id, project_id, parent_feature_id, name, assigned_to, created_at, updated_at"

// GetFeature returns a feature by id.
func (t *Tx) GetFeature(ctx context.Context, id string) (*types.Feature, error) {
	row := t.queryRow(ctx, "SELECT "+featureColumns+" FROM features WHERE feature_id = ?", id)
	f, err := hydrateFeature(row)
	if err != nil {
		return nil, t.notFound(err, "feature", id)
	}
	return f, nil
}

// FindFeatures returns matching features in insertion order.
func (t *Tx) FindFeatures(ctx context.Context, f types.FeatureFilter) ([]*types.Feature, error) {
	w := featureWhere(f)
	rows, err := t.query(ctx, "SELECT "+featureColumns+" FROM features"+w.String()+" ORDER BY created_at, feature_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching features: %w", err)
	}
	defer rows.Close()

	results := []*types.Feature{}
	for rows.Next() {
		ft, err := hydrateFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating feature: %w", err)
		}
		results = append(results, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating features: %w", t.d.ClassifyError(err))
	}
	return results, nil
}

// InsertFeature creates a feature row.
func (t *Tx) InsertFeature(ctx context.Context, ft *types.Feature) error {
	if err := stamp(&ft.FeatureID, &ft.CreatedAt, &ft.UpdatedAt); err != nil {
		return err
	}
	_, err := t.exec(ctx,
		"INSERT INTO features ("+featureColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		ft.FeatureID, ft.ProjectID, ft.ParentFeatureID, ft.Name, ft.AssignedTo,
		formatTime(ft.CreatedAt), formatTime(ft.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting feature: %w", err)
	}
	return nil
}

// UpdateFeature overwrites the mutable columns. project_id is immutable.
func (t *Tx) UpdateFeature(ctx context.Context, ft *types.Feature) error {
	n, err := t.execCount(ctx,
		"UPDATE features SET parent_feature_id = ?, name = ?, assigned_to = ?, updated_at = ? WHERE feature_id = ?",
		ft.ParentFeatureID, ft.Name, ft.AssignedTo, formatTime(ft.UpdatedAt), ft.FeatureID,
	)
	if err != nil {
		return fmt.Errorf("updating feature %s: %w", ft.FeatureID, err)
	}
	if n == 0 {
		return types.NotFoundf("feature %s", ft.FeatureID)
	}
	return nil
}

// DeleteFeatures removes matching features. An unconstrained filter is
// rejected.
func (t *Tx) DeleteFeatures(ctx context.Context, f types.FeatureFilter) (int64, error) {
	w := featureWhere(f)
	if w.empty() {
		return 0, types.InvalidArgumentf("refusing to delete every feature")
	}
	n, err := t.execCount(ctx, "DELETE FROM features"+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("deleting features: %w", err)
	}
	return n, nil
}

func featureWhere(f types.FeatureFilter) *where {
	w := &where{}
	w.in("feature_id", f.IDs)
	w.eq("project_id", f.ProjectID)
	w.in("parent_feature_id", f.ParentIDs)
	if f.RootOnly {
		w.raw("parent_feature_id = ''")
	}
	return w
}

func hydrateFeature(row rowScanner) (*types.Feature, error) {
	var (
		f                  types.Feature
		createdAt, updated string
	)
	if err := row.Scan(&f.FeatureID, &f.ProjectID, &f.ParentFeatureID, &f.Name, &f.AssignedTo,
		&createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &f, nil
}
