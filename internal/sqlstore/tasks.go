package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const taskColumns = "task_id, project_id, feature_id, title, description, status, assigned_to, created_at, updated_at"

// GetTask returns a task by id.
func (t *Tx) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := t.queryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id)
	tk, err := hydrateTask(row)
	if err != nil {
		return nil, t.notFound(err, "task", id)
	}
	return tk, nil
}

// FindTasks returns matching tasks in insertion order.
func (t *Tx) FindTasks(ctx context.Context, f types.TaskFilter) ([]*types.Task, error) {
	w := taskWhere(f)
	rows, err := t.query(ctx, "SELECT "+taskColumns+" FROM tasks"+w.String()+" ORDER BY created_at, task_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer rows.Close()

	results := []*types.Task{}
	for rows.Next() {
		tk, err := hydrateTask(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating task: %w", err)
		}
		results = append(results, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", t.d.ClassifyError(err))
	}
	return results, nil
}

// InsertTask creates a task row. An empty status defaults to todo.
func (t *Tx) InsertTask(ctx context.Context, tk *types.Task) error {
	if err := stamp(&tk.TaskID, &tk.CreatedAt, &tk.UpdatedAt); err != nil {
		return err
	}
	if tk.Status == "" {
		tk.Status = types.TaskTodo
	}
	_, err := t.exec(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		tk.TaskID, tk.ProjectID, tk.FeatureID, tk.Title, tk.Description, string(tk.Status), tk.AssignedTo,
		formatTime(tk.CreatedAt), formatTime(tk.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// UpdateTask overwrites the mutable columns. project_id is immutable.
func (t *Tx) UpdateTask(ctx context.Context, tk *types.Task) error {
	n, err := t.execCount(ctx,
		"UPDATE tasks SET feature_id = ?, title = ?, description = ?, status = ?, assigned_to = ?, updated_at = ? WHERE task_id = ?",
		tk.FeatureID, tk.Title, tk.Description, string(tk.Status), tk.AssignedTo, formatTime(tk.UpdatedAt), tk.TaskID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", tk.TaskID, err)
	}
	if n == 0 {
		return types.NotFoundf("task %s", tk.TaskID)
	}
	return nil
}

// UpdateTasks writes ch to every matching task in one statement.
func (t *Tx) UpdateTasks(ctx context.Context, f types.TaskFilter, ch types.TaskChanges) (int64, error) {
	if ch.Empty() {
		return 0, nil
	}
	var (
		sets []string
		args []any
	)
	if v, ok := ch.AssignedTo.Get(); ok {
		sets = append(sets, "assigned_to = ?")
		args = append(args, v)
	}
	if v, ok := ch.Status.Get(); ok {
		sets = append(sets, "status = ?")
		args = append(args, string(v))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()))

	w := taskWhere(f)
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + w.String()
	n, err := t.execCount(ctx, query, append(args, w.args...)...)
	if err != nil {
		return 0, fmt.Errorf("updating tasks: %w", err)
	}
	return n, nil
}

// DeleteTasks removes matching tasks. An unconstrained filter is rejected.
func (t *Tx) DeleteTasks(ctx context.Context, f types.TaskFilter) (int64, error) {
	w := taskWhere(f)
	if w.empty() {
		return 0, types.InvalidArgumentf("refusing to delete every task")
	}
	n, err := t.execCount(ctx, "DELETE FROM tasks"+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("deleting tasks: %w", err)
	}
	return n, nil
}

func taskWhere(f types.TaskFilter) *where {
	w := &where{}
	w.in("task_id", f.IDs)
	w.eq("project_id", f.ProjectID)
	w.in("feature_id", f.FeatureIDs)
	w.eq("assigned_to", f.AssignedTo)
	if len(f.ExcludeStatuses) > 0 {
		statuses := make([]string, len(f.ExcludeStatuses))
		for i, s := range f.ExcludeStatuses {
			statuses[i] = string(s)
		}
		w.notIn("status", statuses)
	}
	return w
}

func hydrateTask(row rowScanner) (*types.Task, error) {
	var (
		tk                 types.Task
		status             string
		createdAt, updated string
	)
	if err := row.Scan(&tk.TaskID, &tk.ProjectID, &tk.FeatureID, &tk.Title, &tk.Description,
		&status, &tk.AssignedTo, &createdAt, &updated); err != nil {
		return nil, err
	}
	tk.Status = types.TaskStatus(status)
	var err error
	if tk.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if tk.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &tk, nil
}
