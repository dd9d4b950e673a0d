package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Coordinator owns the task status machine and the Task.AssignedTo to
// User.Tasks mirror.
type Coordinator struct{}

// CreateTask inserts a todo task under projectID and appends it to the
// project's task cache. A non-empty featureID must name a feature of the
// same project.
func (Coordinator) CreateTask(ctx context.Context, tx types.Tx, projectID, title, description, featureID string) (*types.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, types.InvalidArgumentf("task title is empty")
	}
	p, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if featureID != "" {
		f, err := tx.GetFeature(ctx, featureID)
		if err != nil {
			return nil, err
		}
		if f.ProjectID != projectID {
			return nil, types.NotFoundf("feature %s in project %s", featureID, projectID)
		}
	}
	t := &types.Task{
		ProjectID:   projectID,
		FeatureID:   featureID,
		Title:       title,
		Description: description,
		Status:      types.TaskTodo,
	}
	if err := tx.InsertTask(ctx, t); err != nil {
		return nil, err
	}
	p.AddTask(t.TaskID)
	if err := tx.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return t, nil
}

// AssignTask hands the task to userID, moving it to assigned, and moves the
// task id from the previous assignee's index to the new one.
func (c Coordinator) AssignTask(ctx context.Context, tx types.Tx, taskID, userID string) (*types.Task, error) {
	t, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	old := t.AssignedTo
	if err := t.Assign(userID); err != nil {
		return nil, err
	}
	if err := tx.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	if err := c.SyncUserTaskIndex(ctx, tx, t.TaskID, old, userID); err != nil {
		return nil, err
	}
	return t, nil
}

// UnassignTask clears the assignee, reopens the task as todo, and drops the
// task id from the previous assignee's index.
func (c Coordinator) UnassignTask(ctx context.Context, tx types.Tx, taskID string) (*types.Task, error) {
	t, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	old := t.AssignedTo
	if err := t.Unassign(); err != nil {
		return nil, err
	}
	if err := tx.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	if err := c.SyncUserTaskIndex(ctx, tx, t.TaskID, old, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// EditTask writes the patched fields and nothing else: user indexes are not
// touched, and completed tasks may be edited. It returns the updated task and
// the assignee it had before the edit so the caller can call
// SyncUserTaskIndex.
func (Coordinator) EditTask(ctx context.Context, tx types.Tx, taskID string, patch types.TaskPatch) (*types.Task, string, error) {
	t, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, "", err
	}
	old := t.AssignedTo
	if patch.Empty() {
		return t, old, nil
	}
	if title, ok := patch.Title.Get(); ok {
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, "", types.InvalidArgumentf("task title is empty")
		}
		t.Title = title
	}
	if desc, ok := patch.Description.Get(); ok {
		t.Description = desc
	}
	if status, ok := patch.Status.Get(); ok {
		if !types.ValidTaskStatus(status) {
			return nil, "", types.InvalidArgumentf("unknown task status %q", status)
		}
		t.Status = status
	}
	if assignee, ok := patch.AssignedTo.Get(); ok {
		if assignee != "" {
			if _, err := tx.GetUser(ctx, assignee); err != nil {
				return nil, "", err
			}
		}
		t.AssignedTo = assignee
	}
	t.UpdatedAt = time.Now().UTC()
	if err := tx.UpdateTask(ctx, t); err != nil {
		return nil, "", err
	}
	return t, old, nil
}

// SyncUserTaskIndex moves taskID from oldAssignee's index to newAssignee's.
// Either side may be empty. A missing old assignee is skipped; a missing new
// assignee is ErrNotFound.
func (Coordinator) SyncUserTaskIndex(ctx context.Context, tx types.Tx, taskID, oldAssignee, newAssignee string) error {
	if oldAssignee != "" && oldAssignee != newAssignee {
		u, err := tx.GetUser(ctx, oldAssignee)
		switch {
		case errors.Is(err, types.ErrNotFound):
		case err != nil:
			return err
		default:
			u.RemoveTask(taskID)
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
		}
	}
	if newAssignee != "" {
		u, err := tx.GetUser(ctx, newAssignee)
		if err != nil {
			return err
		}
		if !u.HasTask(taskID) {
			u.AddTask(taskID)
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteTask removes the task, its entry in the project's task cache, and
// its entry in every user's index.
func (Coordinator) DeleteTask(ctx context.Context, tx types.Tx, taskID string) error {
	t, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	ids := []string{t.TaskID}
	if _, err := tx.PullTasksFromUsers(ctx, ids); err != nil {
		return err
	}
	if _, err := tx.PullTasksFromProjects(ctx, ids); err != nil {
		return err
	}
	if _, err := tx.DeleteTasks(ctx, types.TaskFilter{IDs: ids}); err != nil {
		return err
	}
	return nil
}

// ChangeTaskStatus drives the status machine on behalf of actorID:
// assigned to in-progress (assignee only), in-progress to completed, and
// assigned or in-progress back to todo, which unassigns the task. Every
// other request is ErrInvalidArgument.
func (c Coordinator) ChangeTaskStatus(ctx context.Context, tx types.Tx, taskID, actorID string, status types.TaskStatus) (*types.Task, error) {
	if !types.ValidTaskStatus(status) {
		return nil, types.InvalidArgumentf("unknown task status %q", status)
	}
	t, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	switch status {
	case types.TaskInProgress:
		err = t.Accept(actorID)
	case types.TaskCompleted:
		err = t.Complete()
	case types.TaskTodo:
		if t.Status != types.TaskAssigned && t.Status != types.TaskInProgress {
			return nil, types.InvalidArgumentf("cannot reopen task %s in state %s", t.TaskID, t.Status)
		}
		return c.UnassignTask(ctx, tx, taskID)
	default:
		return nil, types.InvalidArgumentf("status %s is set by assigning the task", status)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
