package types

import (
	"context"
	"errors"
	"fmt"
)

// Backend lifecycle errors. ErrDetached wraps ErrStoreUnavailable.
var (
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrDetached        = fmt.Errorf("store is detached: %w", ErrStoreUnavailable)
)

// Store is a transactional persistence backend. All engine operations run
// inside a Tx obtained from Begin; nothing is visible to other transactions
// until Commit.
type Store interface {
	// Begin starts a transaction. Backends return ErrStoreUnavailable when
	// the underlying database cannot be reached.
	Begin(ctx context.Context) (Tx, error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// Tx is a unit of work against a Store. Reads observe the transaction's own
// writes. Commit returns an error wrapping ErrConflict when a concurrent
// transaction won; callers may retry the whole operation. Rollback after
// Commit is a no-op so that callers can defer it.
//
// Get and Update/Delete of a single missing entity return ErrNotFound.
// Insert assigns a UUID v7 when the id field is empty and stamps
// CreatedAt/UpdatedAt when they are zero.
type Tx interface {
	Commit() error
	Rollback() error

	GetProject(ctx context.Context, id string) (*Project, error)
	FindProjectByCode(ctx context.Context, code string) (*Project, error)
	FindProjects(ctx context.Context, f ProjectFilter) ([]*Project, error)
	InsertProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	GetFeature(ctx context.Context, id string) (*Feature, error)
	FindFeatures(ctx context.Context, f FeatureFilter) ([]*Feature, error)
	InsertFeature(ctx context.Context, ft *Feature) error
	UpdateFeature(ctx context.Context, ft *Feature) error
	// DeleteFeatures removes the matching features and returns how many
	// rows went away. Tasks and user indexes are not touched.
	DeleteFeatures(ctx context.Context, f FeatureFilter) (int64, error)

	GetTask(ctx context.Context, id string) (*Task, error)
	FindTasks(ctx context.Context, f TaskFilter) ([]*Task, error)
	InsertTask(ctx context.Context, t *Task) error
	UpdateTask(ctx context.Context, t *Task) error
	// UpdateTasks applies ch to every matching task in a single statement.
	UpdateTasks(ctx context.Context, f TaskFilter, ch TaskChanges) (int64, error)
	DeleteTasks(ctx context.Context, f TaskFilter) (int64, error)

	GetUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUsers(ctx context.Context, f UserFilter) ([]*User, error)
	InsertUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error

	// PullTasksFromUsers removes the given task ids from every user's task
	// index.
	PullTasksFromUsers(ctx context.Context, taskIDs []string) (int64, error)
	// PullTasksFromProjects removes the given task ids from every project's
	// task cache.
	PullTasksFromProjects(ctx context.Context, taskIDs []string) (int64, error)
	// PullProjectFromUsers removes projectID from every user's owned and
	// member project lists.
	PullProjectFromUsers(ctx context.Context, projectID string) (int64, error)
}

// Filters follow one rule for id sets: a nil slice means no constraint and
// a non-nil empty slice matches nothing. Empty strings mean no constraint.

// ProjectFilter selects projects.
type ProjectFilter struct {
	IDs      []string
	MemberID string // team contains this user
}

// FeatureFilter selects features.
type FeatureFilter struct {
	IDs       []string
	ProjectID string
	ParentIDs []string // parent_feature_id in this set
	RootOnly  bool     // parent_feature_id is empty
}

// TaskFilter selects tasks.
type TaskFilter struct {
	IDs             []string
	ProjectID       string
	FeatureIDs      []string
	AssignedTo      string
	ExcludeStatuses []TaskStatus
}

// UserFilter selects users.
type UserFilter struct {
	IDs     []string
	TaskIDs []string // task index contains any of these
}

// TaskChanges lists the columns a bulk task update writes. Unset fields are
// left alone; a set AssignedTo with an empty value clears the assignee.
type TaskChanges struct {
	AssignedTo Field[string]
	Status     Field[TaskStatus]
}

// Empty reports whether ch changes nothing.
func (ch TaskChanges) Empty() bool {
	return !ch.AssignedTo.Set && !ch.Status.Set
}
