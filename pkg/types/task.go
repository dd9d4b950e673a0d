package types

import "time"

// TaskStatus is the state of a task in its assignment lifecycle.
type TaskStatus string

// Task states. A task moves todo -> assigned -> in-progress -> completed;
// unassigning an assigned or in-progress task returns it to todo.
const (
	TaskTodo       TaskStatus = "todo"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// ValidTaskStatus reports whether s is a recognized task status.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskTodo, TaskAssigned, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Task is a unit of work inside a project, optionally attached to a feature.
// FeatureID and AssignedTo are empty when unset.
type Task struct {
	TaskID      string     `json:"task_id"`
	ProjectID   string     `json:"project_id"`
	FeatureID   string     `json:"feature_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Frozen reports whether cascades must leave the task alone. Completed tasks
// keep their historical assignee.
func (t *Task) Frozen() bool {
	return t.Status == TaskCompleted
}

// Assign hands the task to userID and moves it to assigned, whatever the
// prior open state. Completed tasks return ErrInvalidArgument; they can only
// be changed through a direct edit.
func (t *Task) Assign(userID string) error {
	if userID == "" {
		return InvalidArgumentf("assignee id is empty")
	}
	if t.Frozen() {
		return InvalidArgumentf("task %s is completed", t.TaskID)
	}
	t.AssignedTo = userID
	t.Status = TaskAssigned
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Unassign clears the assignee and reopens the task as todo. Idempotent on an
// unassigned todo task. Completed tasks return ErrInvalidArgument.
func (t *Task) Unassign() error {
	if t.Frozen() {
		return InvalidArgumentf("task %s is completed", t.TaskID)
	}
	t.AssignedTo = ""
	t.Status = TaskTodo
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Accept moves an assigned task to in-progress. Only the assignee may accept
// (ErrForbidden); any other current state is ErrInvalidArgument.
func (t *Task) Accept(actorID string) error {
	if t.Status != TaskAssigned {
		return InvalidArgumentf("cannot accept task %s in state %s", t.TaskID, t.Status)
	}
	if actorID == "" || actorID != t.AssignedTo {
		return Forbiddenf("only the assignee can accept task %s", t.TaskID)
	}
	t.Status = TaskInProgress
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete marks an in-progress task as finished. Completed is terminal for
// every operation except a direct edit.
func (t *Task) Complete() error {
	if t.Status != TaskInProgress {
		return InvalidArgumentf("cannot complete task %s in state %s", t.TaskID, t.Status)
	}
	t.Status = TaskCompleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}
