package types

// Field is an optional value in a partial update. A zero Field leaves the
// stored value unchanged; Some marks the value as set, including set to the
// zero value of T.
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a Field that is set to v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Get returns the value and whether it was set.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}

// FeaturePatch lists the mutable fields of a Feature. An empty
// ParentFeatureID value moves the feature to the root of its project.
type FeaturePatch struct {
	Name            Field[string]
	ParentFeatureID Field[string]
}

// Empty reports whether the patch changes nothing.
func (p FeaturePatch) Empty() bool {
	return !p.Name.Set && !p.ParentFeatureID.Set
}

// TaskPatch lists the mutable fields of a Task. An empty AssignedTo value
// clears the assignee.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Status      Field[TaskStatus]
	AssignedTo  Field[string]
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.AssignedTo.Set
}
