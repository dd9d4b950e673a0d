package engine

import (
	"context"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// UserSummary is the public view of a user.
type UserSummary struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func summarize(u *types.User) UserSummary {
	return UserSummary{UserID: u.UserID, Username: u.Username, Email: u.Email}
}

// GetProject returns a project by id.
func (e *Engine) GetProject(ctx context.Context, projectID string) (*types.Project, error) {
	var p *types.Project
	err := e.view(ctx, "getProject", func(ctx context.Context, tx types.Tx) error {
		var err error
		p, err = tx.GetProject(ctx, projectID)
		return err
	})
	return p, err
}

// ProjectCode returns the join code of a project.
func (e *Engine) ProjectCode(ctx context.Context, projectID string) (string, error) {
	p, err := e.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return p.Code, nil
}

// Team returns summaries of the project's members in team order.
func (e *Engine) Team(ctx context.Context, projectID string) ([]UserSummary, error) {
	var out []UserSummary
	err := e.view(ctx, "getTeam", func(ctx context.Context, tx types.Tx) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		users, err := tx.FindUsers(ctx, types.UserFilter{IDs: p.Team})
		if err != nil {
			return err
		}
		byID := make(map[string]*types.User, len(users))
		for _, u := range users {
			byID[u.UserID] = u
		}
		out = make([]UserSummary, 0, len(p.Team))
		for _, id := range p.Team {
			if u, ok := byID[id]; ok {
				out = append(out, summarize(u))
			}
		}
		return nil
	})
	return out, err
}

// ListFeatures returns every feature of a project in insertion order.
func (e *Engine) ListFeatures(ctx context.Context, projectID string) ([]*types.Feature, error) {
	var out []*types.Feature
	err := e.view(ctx, "listFeatures", func(ctx context.Context, tx types.Tx) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		var err error
		out, err = tx.FindFeatures(ctx, types.FeatureFilter{ProjectID: projectID})
		return err
	})
	return out, err
}

// GetFeature returns a feature by id.
func (e *Engine) GetFeature(ctx context.Context, featureID string) (*types.Feature, error) {
	var f *types.Feature
	err := e.view(ctx, "getFeature", func(ctx context.Context, tx types.Tx) error {
		var err error
		f, err = tx.GetFeature(ctx, featureID)
		return err
	})
	return f, err
}

// Subtree returns the feature and all of its descendants, parents before
// children.
func (e *Engine) Subtree(ctx context.Context, featureID string) ([]*types.Feature, error) {
	var out []*types.Feature
	err := e.view(ctx, "subtree", func(ctx context.Context, tx types.Tx) error {
		ids, err := e.hier.EnumerateSubtree(ctx, tx, featureID)
		if err != nil {
			return err
		}
		features, err := tx.FindFeatures(ctx, types.FeatureFilter{IDs: ids})
		if err != nil {
			return err
		}
		byID := make(map[string]*types.Feature, len(features))
		for _, f := range features {
			byID[f.FeatureID] = f
		}
		out = make([]*types.Feature, 0, len(ids))
		for _, id := range ids {
			if f, ok := byID[id]; ok {
				out = append(out, f)
			}
		}
		return nil
	})
	return out, err
}

// ListProjectTasks returns every task of a project in insertion order.
func (e *Engine) ListProjectTasks(ctx context.Context, projectID string) ([]*types.Task, error) {
	var out []*types.Task
	err := e.view(ctx, "listProjectTasks", func(ctx context.Context, tx types.Tx) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		var err error
		out, err = tx.FindTasks(ctx, types.TaskFilter{ProjectID: projectID})
		return err
	})
	return out, err
}

// GetTask returns a task by id.
func (e *Engine) GetTask(ctx context.Context, taskID string) (*types.Task, error) {
	var t *types.Task
	err := e.view(ctx, "getTask", func(ctx context.Context, tx types.Tx) error {
		var err error
		t, err = tx.GetTask(ctx, taskID)
		return err
	})
	return t, err
}

// GetUser returns a user by id.
func (e *Engine) GetUser(ctx context.Context, userID string) (*types.User, error) {
	var u *types.User
	err := e.view(ctx, "getUser", func(ctx context.Context, tx types.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, userID)
		return err
	})
	return u, err
}

// UserProjects returns the projects the user administers.
func (e *Engine) UserProjects(ctx context.Context, userID string) ([]*types.Project, error) {
	return e.userProjectList(ctx, "userProjects", userID, func(u *types.User) []string { return u.UserProjects })
}

// OtherProjects returns the projects the user joined as a member.
func (e *Engine) OtherProjects(ctx context.Context, userID string) ([]*types.Project, error) {
	return e.userProjectList(ctx, "otherProjects", userID, func(u *types.User) []string { return u.OtherProjects })
}

func (e *Engine) userProjectList(ctx context.Context, op, userID string, ids func(*types.User) []string) ([]*types.Project, error) {
	var out []*types.Project
	err := e.view(ctx, op, func(ctx context.Context, tx types.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out, err = tx.FindProjects(ctx, types.ProjectFilter{IDs: nonNil(ids(u))})
		return err
	})
	return out, err
}

// UserTasks returns the tasks in the user's index.
func (e *Engine) UserTasks(ctx context.Context, userID string) ([]*types.Task, error) {
	var out []*types.Task
	err := e.view(ctx, "userTasks", func(ctx context.Context, tx types.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out, err = tx.FindTasks(ctx, types.TaskFilter{IDs: nonNil(u.Tasks)})
		return err
	})
	return out, err
}

// nonNil turns a nil id list into an empty one so that it matches nothing.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
