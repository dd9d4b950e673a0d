package types

import "time"

// Feature is a node in a project's feature forest. ParentFeatureID is empty
// for a root; otherwise it names another feature of the same project.
// AssignedTo is empty when nobody owns the feature.
type Feature struct {
	FeatureID       string    `json:"feature_id"`
	ProjectID       string    `json:"project_id"`
	ParentFeatureID string    `json:"parent_feature_id,omitempty"`
	Name            string    `json:"name"`
	AssignedTo      string    `json:"assigned_to,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsRoot reports whether the feature has no parent.
func (f *Feature) IsRoot() bool {
	return f.ParentFeatureID == ""
}

// Rename sets the feature name. Returns ErrInvalidArgument for an empty name.
func (f *Feature) Rename(name string) error {
	if name == "" {
		return InvalidArgumentf("feature name is empty")
	}
	f.Name = name
	f.UpdatedAt = time.Now().UTC()
	return nil
}
