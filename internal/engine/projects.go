package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
	codeLength   = 7
	codeAttempts = 8
)

// newJoinCode returns a random 7-character URL-safe code.
func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)&63]
	}
	return string(buf), nil
}

// uniqueJoinCode draws codes until one is unused.
func uniqueJoinCode(ctx context.Context, tx types.Tx) (string, error) {
	for range codeAttempts {
		code, err := newJoinCode()
		if err != nil {
			return "", err
		}
		_, err = tx.FindProjectByCode(ctx, code)
		if errors.Is(err, types.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", types.Conflictf("no unused join code after %d attempts", codeAttempts)
}

// CreateProject creates a pending project administered by actorID, with
// actorID as its only team member and a fresh join code.
func (e *Engine) CreateProject(ctx context.Context, actorID, title, description string) (*types.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, types.InvalidArgumentf("project title is empty")
	}
	var p *types.Project
	err := e.inTx(ctx, "createProject", func(ctx context.Context, tx types.Tx) error {
		admin, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		code, err := uniqueJoinCode(ctx, tx)
		if err != nil {
			return err
		}
		p = &types.Project{
			Title:       title,
			Description: description,
			Admin:       types.AdminRef{ID: admin.UserID, Username: admin.Username},
			Team:        []string{admin.UserID},
			Status:      types.ProjectPending,
			Code:        code,
			Tasks:       []string{},
		}
		if err := tx.InsertProject(ctx, p); err != nil {
			return err
		}
		admin.AddOwnedProject(p.ProjectID)
		return tx.UpdateUser(ctx, admin)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("project created", "project_id", p.ProjectID, "admin", actorID)
	return p, nil
}

// ChangeProjectStatus sets the project status. Admin only.
func (e *Engine) ChangeProjectStatus(ctx context.Context, projectID, actorID string, status types.ProjectStatus) (*types.Project, error) {
	var p *types.Project
	err := e.inTx(ctx, "changeProjectStatus", func(ctx context.Context, tx types.Tx) error {
		if err := e.requireAdmin(ctx, tx, projectID, actorID); err != nil {
			return err
		}
		var err error
		if p, err = tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		if err := p.SetStatus(status); err != nil {
			return err
		}
		return tx.UpdateProject(ctx, p)
	})
	return p, err
}

// DeleteProject removes the project, all of its features and tasks, and
// every user reference to the project or its tasks. Admin only.
func (e *Engine) DeleteProject(ctx context.Context, projectID, actorID string) (DeleteResult, error) {
	var res DeleteResult
	err := e.inTx(ctx, "deleteProject", func(ctx context.Context, tx types.Tx) error {
		if err := e.requireAdmin(ctx, tx, projectID, actorID); err != nil {
			return err
		}
		tasks, err := tx.FindTasks(ctx, types.TaskFilter{ProjectID: projectID})
		if err != nil {
			return err
		}
		taskIDs := make([]string, len(tasks))
		for i, t := range tasks {
			taskIDs[i] = t.TaskID
		}
		if _, err := tx.PullTasksFromUsers(ctx, taskIDs); err != nil {
			return err
		}
		if _, err := tx.PullProjectFromUsers(ctx, projectID); err != nil {
			return err
		}
		if _, err := tx.DeleteTasks(ctx, types.TaskFilter{ProjectID: projectID}); err != nil {
			return err
		}
		n, err := tx.DeleteFeatures(ctx, types.FeatureFilter{ProjectID: projectID})
		if err != nil {
			return err
		}
		res = DeleteResult{FeaturesRemoved: int(n), TasksRemoved: len(taskIDs)}
		return tx.DeleteProject(ctx, projectID)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	e.hooks.ObserveCascade("deleteProject", res.FeaturesRemoved, res.TasksRemoved)
	e.log.Info("project deleted", "project_id", projectID,
		"features_removed", res.FeaturesRemoved, "tasks_removed", res.TasksRemoved)
	return res, nil
}

// JoinTeam adds userID to the project whose join code is code. Joining
// twice is ErrConflict.
func (e *Engine) JoinTeam(ctx context.Context, code, userID string) (*types.Project, error) {
	var p *types.Project
	err := e.inTx(ctx, "joinTeam", func(ctx context.Context, tx types.Tx) error {
		var err error
		if p, err = tx.FindProjectByCode(ctx, strings.TrimSpace(code)); err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := p.AddMember(u.UserID); err != nil {
			return err
		}
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}
		u.AddOtherProject(p.ProjectID)
		return tx.UpdateUser(ctx, u)
	})
	return p, err
}

// LeaveProject removes userID from the team. The admin cannot leave
// (ErrForbidden). Tasks assigned to the user stay assigned.
func (e *Engine) LeaveProject(ctx context.Context, projectID, userID string) error {
	return e.inTx(ctx, "leaveProject", func(ctx context.Context, tx types.Tx) error {
		return e.removeMember(ctx, tx, projectID, userID)
	})
}

// RemoveFromTeam removes targetID from the team on behalf of the admin.
// Tasks assigned to the target stay assigned.
func (e *Engine) RemoveFromTeam(ctx context.Context, projectID, actorID, targetID string) error {
	return e.inTx(ctx, "removeFromTeam", func(ctx context.Context, tx types.Tx) error {
		if err := e.requireAdmin(ctx, tx, projectID, actorID); err != nil {
			return err
		}
		return e.removeMember(ctx, tx, projectID, targetID)
	})
}

func (e *Engine) removeMember(ctx context.Context, tx types.Tx, projectID, userID string) error {
	p, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := p.RemoveMember(userID); err != nil {
		return err
	}
	if err := tx.UpdateProject(ctx, p); err != nil {
		return err
	}
	u, err := tx.GetUser(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	u.RemoveOtherProject(projectID)
	return tx.UpdateUser(ctx, u)
}
