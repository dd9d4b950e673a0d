package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

func mustCreateTask(t *testing.T, e *Engine, projectID, title, featureID string) *types.Task {
	t.Helper()
	tk, err := e.CreateTask(context.Background(), projectID, title, "", featureID)
	require.NoError(t, err)
	return tk
}

func TestCreateTask(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	admin, p := setupProject(t, e)
	f := mustFeature(t, e, p.ProjectID, "f", "")
	other, err := e.CreateProject(ctx, admin, "Other", "")
	require.NoError(t, err)
	foreign := mustFeature(t, e, other.ProjectID, "x", "")

	tk := mustCreateTask(t, e, p.ProjectID, "write docs", f.FeatureID)
	assert.Equal(t, types.TaskTodo, tk.Status)
	assert.Empty(t, tk.AssignedTo)

	loose := mustCreateTask(t, e, p.ProjectID, "loose", "")
	assert.Empty(t, loose.FeatureID)

	got, err := e.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, []string{tk.TaskID, loose.TaskID}, got.Tasks)

	_, err = e.CreateTask(ctx, p.ProjectID, "bad", "", foreign.FeatureID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = e.CreateTask(ctx, "nope", "bad", "", "")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = e.CreateTask(ctx, p.ProjectID, "", "", "")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	mustCheck(t, e)
}

func TestAssignAndReassignTask(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	u2 := addUser(t, e, "u2")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")

	got, err := e.AssignTask(ctx, tk.TaskID, u1)
	require.NoError(t, err)
	assert.Equal(t, types.TaskAssigned, got.Status)
	assert.Equal(t, []string{tk.TaskID}, mustUser(t, e, u1).Tasks)

	got, err = e.AssignTask(ctx, tk.TaskID, u2)
	require.NoError(t, err)
	assert.Equal(t, u2, got.AssignedTo)
	assert.Empty(t, mustUser(t, e, u1).Tasks, "old assignee loses the task")
	assert.Equal(t, []string{tk.TaskID}, mustUser(t, e, u2).Tasks)

	_, err = e.AssignTask(ctx, tk.TaskID, "nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = e.AssignTask(ctx, "nope", u1)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, u2, mustTask(t, e, tk.TaskID).AssignedTo, "failed assign leaves task alone")
	mustCheck(t, e)
}

func TestUnassignTask(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")
	_, err := e.AssignTask(ctx, tk.TaskID, u1)
	require.NoError(t, err)

	got, err := e.UnassignTask(ctx, tk.TaskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskTodo, got.Status)
	assert.Empty(t, got.AssignedTo)
	assert.Empty(t, mustUser(t, e, u1).Tasks)
	mustCheck(t, e)
}

func TestCompletedTaskRejectsAssignment(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	u2 := addUser(t, e, "u2")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")
	_, err := e.AssignTask(ctx, tk.TaskID, u1)
	require.NoError(t, err)
	_, err = e.ChangeTaskStatus(ctx, tk.TaskID, u1, types.TaskInProgress)
	require.NoError(t, err)
	_, err = e.ChangeTaskStatus(ctx, tk.TaskID, u1, types.TaskCompleted)
	require.NoError(t, err)

	_, err = e.AssignTask(ctx, tk.TaskID, u2)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = e.UnassignTask(ctx, tk.TaskID)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	// A direct edit may still move it.
	got, err := e.EditTask(ctx, tk.TaskID, types.TaskPatch{
		AssignedTo: types.Some(u2),
		Status:     types.Some(types.TaskCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, u2, got.AssignedTo)
	assert.Equal(t, types.TaskCompleted, got.Status)
	assert.Empty(t, mustUser(t, e, u1).Tasks)
	assert.Equal(t, []string{tk.TaskID}, mustUser(t, e, u2).Tasks)
	mustCheck(t, e)
}

func TestEditTask(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")

	got, err := e.EditTask(ctx, tk.TaskID, types.TaskPatch{
		Title:       types.Some("renamed"),
		Description: types.Some("details"),
		AssignedTo:  types.Some(u1),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "details", got.Description)
	assert.Equal(t, types.TaskAssigned, got.Status, "assignee without status implies assigned")
	assert.Equal(t, []string{tk.TaskID}, mustUser(t, e, u1).Tasks)

	got, err = e.EditTask(ctx, tk.TaskID, types.TaskPatch{AssignedTo: types.Some("")})
	require.NoError(t, err)
	assert.Equal(t, types.TaskTodo, got.Status)
	assert.Empty(t, mustUser(t, e, u1).Tasks)

	tests := []struct {
		name  string
		patch types.TaskPatch
		want  error
	}{
		{"unknown status", types.TaskPatch{Status: types.Some(types.TaskStatus("done"))}, types.ErrInvalidArgument},
		{"empty title", types.TaskPatch{Title: types.Some(" ")}, types.ErrInvalidArgument},
		{"unknown assignee", types.TaskPatch{AssignedTo: types.Some("nobody")}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EditTask(ctx, tk.TaskID, tt.patch)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	mustCheck(t, e)
}

func TestLowLevelEditLeavesIndexToCaller(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")

	tx, err := e.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	var c Coordinator
	got, old, err := c.EditTask(ctx, tx, tk.TaskID, types.TaskPatch{AssignedTo: types.Some(u1)})
	require.NoError(t, err)
	assert.Empty(t, old)
	assert.Equal(t, u1, got.AssignedTo)

	violations, err := CheckInvariants(ctx, tx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, RuleAssignmentIndex, violations[0].Rule)

	require.NoError(t, c.SyncUserTaskIndex(ctx, tx, tk.TaskID, old, u1))
	violations, err = CheckInvariants(ctx, tx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestDeleteTask(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	tk := mustCreateTask(t, e, p.ProjectID, "t", "")
	keep := mustCreateTask(t, e, p.ProjectID, "keep", "")
	_, err := e.AssignTask(ctx, tk.TaskID, u1)
	require.NoError(t, err)

	require.NoError(t, e.DeleteTask(ctx, tk.TaskID))
	_, err = e.GetTask(ctx, tk.TaskID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, mustUser(t, e, u1).Tasks)
	got, err := e.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.TaskID}, got.Tasks)

	assert.ErrorIs(t, e.DeleteTask(ctx, tk.TaskID), types.ErrNotFound)
	mustCheck(t, e)
}

func TestChangeTaskStatus(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	_, p := setupProject(t, e)
	u1 := addUser(t, e, "u1")
	u2 := addUser(t, e, "u2")

	tests := []struct {
		name       string
		assign     string
		steps      []types.TaskStatus
		actor      string
		target     types.TaskStatus
		wantErr    error
		wantStatus types.TaskStatus
	}{
		{name: "assignee accepts", assign: u1, actor: u1, target: types.TaskInProgress, wantStatus: types.TaskInProgress},
		{name: "stranger cannot accept", assign: u1, actor: u2, target: types.TaskInProgress, wantErr: types.ErrForbidden},
		{name: "complete in progress", assign: u1, steps: []types.TaskStatus{types.TaskInProgress}, actor: u1, target: types.TaskCompleted, wantStatus: types.TaskCompleted},
		{name: "complete assigned rejected", assign: u1, actor: u1, target: types.TaskCompleted, wantErr: types.ErrInvalidArgument},
		{name: "reopen in progress", assign: u1, steps: []types.TaskStatus{types.TaskInProgress}, actor: u1, target: types.TaskTodo, wantStatus: types.TaskTodo},
		{name: "reopen todo rejected", actor: u1, target: types.TaskTodo, wantErr: types.ErrInvalidArgument},
		{name: "assigned via status rejected", actor: u1, target: types.TaskAssigned, wantErr: types.ErrInvalidArgument},
		{name: "unknown status", actor: u1, target: "done", wantErr: types.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := mustCreateTask(t, e, p.ProjectID, tt.name, "")
			if tt.assign != "" {
				_, err := e.AssignTask(ctx, tk.TaskID, tt.assign)
				require.NoError(t, err)
			}
			for _, s := range tt.steps {
				_, err := e.ChangeTaskStatus(ctx, tk.TaskID, tt.assign, s)
				require.NoError(t, err)
			}
			got, err := e.ChangeTaskStatus(ctx, tk.TaskID, tt.actor, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.target == types.TaskTodo {
				assert.Empty(t, got.AssignedTo)
			}
		})
	}
	mustCheck(t, e)
}
