package engine

import (
	"context"
	"errors"
	"time"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// DeleteResult reports what a delete cascade removed.
type DeleteResult struct {
	FeaturesRemoved int `json:"features_removed"`
	TasksRemoved    int `json:"tasks_removed"`
}

// AssignResult reports what an assign cascade changed.
type AssignResult struct {
	Feature      *types.Feature `json:"feature"`
	TasksUpdated int            `json:"tasks_updated"`
}

// CreateFeature adds a feature to a project, optionally under a parent.
func (e *Engine) CreateFeature(ctx context.Context, projectID, name, parentID string) (*types.Feature, error) {
	var f *types.Feature
	err := e.inTx(ctx, "createFeature", func(ctx context.Context, tx types.Tx) error {
		var err error
		f, err = e.hier.CreateFeature(ctx, tx, projectID, name, parentID)
		return err
	})
	return f, err
}

// RenameOrReparent applies a partial update to a feature.
func (e *Engine) RenameOrReparent(ctx context.Context, featureID string, patch types.FeaturePatch) (*types.Feature, error) {
	var f *types.Feature
	err := e.inTx(ctx, "renameOrReparent", func(ctx context.Context, tx types.Tx) error {
		var err error
		f, err = e.hier.RenameOrReparent(ctx, tx, featureID, patch)
		return err
	})
	return f, err
}

// DeleteFeature removes the feature, every feature beneath it, and every
// task attached to any of them, then scrubs those task ids from project
// caches and user indexes.
func (e *Engine) DeleteFeature(ctx context.Context, featureID string) (DeleteResult, error) {
	var res DeleteResult
	err := e.inTx(ctx, "deleteFeature", func(ctx context.Context, tx types.Tx) error {
		var err error
		res, err = e.deleteSubtree(ctx, tx, featureID)
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}
	e.hooks.ObserveCascade("deleteFeature", res.FeaturesRemoved, res.TasksRemoved)
	e.log.Info("feature deleted", "feature_id", featureID,
		"features_removed", res.FeaturesRemoved, "tasks_removed", res.TasksRemoved)
	return res, nil
}

func (e *Engine) deleteSubtree(ctx context.Context, tx types.Tx, featureID string) (DeleteResult, error) {
	featureIDs, err := e.hier.EnumerateSubtree(ctx, tx, featureID)
	if err != nil {
		return DeleteResult{}, err
	}
	tasks, err := tx.FindTasks(ctx, types.TaskFilter{FeatureIDs: featureIDs})
	if err != nil {
		return DeleteResult{}, err
	}
	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.TaskID
	}
	if len(taskIDs) > 0 {
		if _, err := tx.PullTasksFromUsers(ctx, taskIDs); err != nil {
			return DeleteResult{}, err
		}
		if _, err := tx.PullTasksFromProjects(ctx, taskIDs); err != nil {
			return DeleteResult{}, err
		}
		if _, err := tx.DeleteTasks(ctx, types.TaskFilter{IDs: taskIDs}); err != nil {
			return DeleteResult{}, err
		}
	}
	n, err := tx.DeleteFeatures(ctx, types.FeatureFilter{IDs: featureIDs})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{FeaturesRemoved: int(n), TasksRemoved: len(taskIDs)}, nil
}

// AssignFeature sets the feature's assignee (empty clears it) and pushes the
// change onto the tasks directly attached to the feature. Completed tasks
// keep their assignee and status. Sub-features are not touched.
func (e *Engine) AssignFeature(ctx context.Context, featureID, userID string) (AssignResult, error) {
	var res AssignResult
	err := e.inTx(ctx, "assignFeature", func(ctx context.Context, tx types.Tx) error {
		f, err := tx.GetFeature(ctx, featureID)
		if err != nil {
			return err
		}
		var assignee *types.User
		if userID != "" {
			if assignee, err = tx.GetUser(ctx, userID); err != nil {
				return err
			}
		}
		f.AssignedTo = userID
		f.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateFeature(ctx, f); err != nil {
			return err
		}
		res.Feature = f

		tasks, err := tx.FindTasks(ctx, types.TaskFilter{
			FeatureIDs:      []string{f.FeatureID},
			ExcludeStatuses: []types.TaskStatus{types.TaskCompleted},
		})
		if err != nil || len(tasks) == 0 {
			return err
		}

		taskIDs := make([]string, len(tasks))
		released := map[string][]string{}
		var releasedOrder []string
		for i, t := range tasks {
			taskIDs[i] = t.TaskID
			if t.AssignedTo != "" && t.AssignedTo != userID {
				if _, seen := released[t.AssignedTo]; !seen {
					releasedOrder = append(releasedOrder, t.AssignedTo)
				}
				released[t.AssignedTo] = append(released[t.AssignedTo], t.TaskID)
			}
		}

		status := types.TaskTodo
		if userID != "" {
			status = types.TaskAssigned
		}
		n, err := tx.UpdateTasks(ctx, types.TaskFilter{IDs: taskIDs}, types.TaskChanges{
			AssignedTo: types.Some(userID),
			Status:     types.Some(status),
		})
		if err != nil {
			return err
		}
		res.TasksUpdated = int(n)

		for _, oldID := range releasedOrder {
			if err := e.releaseTasks(ctx, tx, oldID, released[oldID]); err != nil {
				return err
			}
		}
		if assignee != nil {
			for _, id := range taskIDs {
				assignee.AddTask(id)
			}
			if err := tx.UpdateUser(ctx, assignee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}
	e.hooks.ObserveCascade("assignFeature", 1, res.TasksUpdated)
	e.log.Info("feature assigned", "feature_id", featureID, "assignee", userID, "tasks_updated", res.TasksUpdated)
	return res, nil
}

// releaseTasks drops taskIDs from userID's index. A user that no longer
// exists has no index to fix.
func (e *Engine) releaseTasks(ctx context.Context, tx types.Tx, userID string, taskIDs []string) error {
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return err
	}
	for _, id := range taskIDs {
		u.RemoveTask(id)
	}
	return tx.UpdateUser(ctx, u)
}

// CreateTask adds a todo task to a project, optionally under a feature.
func (e *Engine) CreateTask(ctx context.Context, projectID, title, description, featureID string) (*types.Task, error) {
	var t *types.Task
	err := e.inTx(ctx, "createTask", func(ctx context.Context, tx types.Tx) error {
		var err error
		t, err = e.coord.CreateTask(ctx, tx, projectID, title, description, featureID)
		return err
	})
	return t, err
}

// AssignTask assigns a single task and keeps user indexes in step.
func (e *Engine) AssignTask(ctx context.Context, taskID, userID string) (*types.Task, error) {
	var t *types.Task
	err := e.inTx(ctx, "assignTask", func(ctx context.Context, tx types.Tx) error {
		var err error
		t, err = e.coord.AssignTask(ctx, tx, taskID, userID)
		return err
	})
	return t, err
}

// UnassignTask clears a task's assignee and reopens it.
func (e *Engine) UnassignTask(ctx context.Context, taskID string) (*types.Task, error) {
	var t *types.Task
	err := e.inTx(ctx, "unassignTask", func(ctx context.Context, tx types.Tx) error {
		var err error
		t, err = e.coord.UnassignTask(ctx, tx, taskID)
		return err
	})
	return t, err
}

// EditTask applies a direct edit and re-syncs user indexes when the
// assignee changes. Changing the assignee without an explicit status moves
// the task to assigned (or todo when cleared).
func (e *Engine) EditTask(ctx context.Context, taskID string, patch types.TaskPatch) (*types.Task, error) {
	if assignee, ok := patch.AssignedTo.Get(); ok && !patch.Status.Set {
		if assignee == "" {
			patch.Status = types.Some(types.TaskTodo)
		} else {
			patch.Status = types.Some(types.TaskAssigned)
		}
	}
	var t *types.Task
	err := e.inTx(ctx, "editTask", func(ctx context.Context, tx types.Tx) error {
		var (
			old string
			err error
		)
		t, old, err = e.coord.EditTask(ctx, tx, taskID, patch)
		if err != nil {
			return err
		}
		if old == t.AssignedTo {
			return nil
		}
		return e.coord.SyncUserTaskIndex(ctx, tx, t.TaskID, old, t.AssignedTo)
	})
	return t, err
}

// DeleteTask removes a task and every reference to it.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	return e.inTx(ctx, "deleteTask", func(ctx context.Context, tx types.Tx) error {
		return e.coord.DeleteTask(ctx, tx, taskID)
	})
}

// ChangeTaskStatus moves a task through its status machine on behalf of
// actorID.
func (e *Engine) ChangeTaskStatus(ctx context.Context, taskID, actorID string, status types.TaskStatus) (*types.Task, error) {
	var t *types.Task
	err := e.inTx(ctx, "changeTaskStatus", func(ctx context.Context, tx types.Tx) error {
		var err error
		t, err = e.coord.ChangeTaskStatus(ctx, tx, taskID, actorID, status)
		return err
	})
	return t, err
}
