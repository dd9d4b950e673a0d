package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const projectColumns = "project_id, title, description, admin_id, admin_username, status, code, created_at, updated_at"

// GetProject returns the project with its team and task cache.
func (t *Tx) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := t.queryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE project_id = ?", id)
	p, err := hydrateProject(row)
	if err != nil {
		return nil, t.notFound(err, "project", id)
	}
	if err := t.loadProjectLists(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindProjectByCode resolves a join code.
func (t *Tx) FindProjectByCode(ctx context.Context, code string) (*types.Project, error) {
	row := t.queryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE code = ?", code)
	p, err := hydrateProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFoundf("project with code %q", code)
		}
		return nil, fmt.Errorf("finding project by code: %w", t.d.ClassifyError(err))
	}
	if err := t.loadProjectLists(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindProjects returns matching projects ordered by creation.
func (t *Tx) FindProjects(ctx context.Context, f types.ProjectFilter) ([]*types.Project, error) {
	var w where
	w.in("project_id", f.IDs)
	if f.MemberID != "" {
		w.raw("project_id IN (SELECT project_id FROM project_team WHERE user_id = ?)", f.MemberID)
	}
	rows, err := t.query(ctx, "SELECT "+projectColumns+" FROM projects"+w.String()+" ORDER BY created_at, project_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	results := []*types.Project{}
	for rows.Next() {
		p, err := hydrateProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("hydrating project: %w", err)
		}
		results = append(results, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", t.d.ClassifyError(err))
	}
	for _, p := range results {
		if err := t.loadProjectLists(ctx, p); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// InsertProject creates a project row with its team and task cache.
func (t *Tx) InsertProject(ctx context.Context, p *types.Project) error {
	if err := stamp(&p.ProjectID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = types.ProjectPending
	}
	_, err := t.exec(ctx,
		"INSERT INTO projects ("+projectColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ProjectID, p.Title, p.Description, p.Admin.ID, p.Admin.Username, string(p.Status), p.Code,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return t.writeProjectLists(ctx, p)
}

// UpdateProject overwrites the project row and replaces its team and task
// cache. Admin and code are immutable and not written.
func (t *Tx) UpdateProject(ctx context.Context, p *types.Project) error {
	n, err := t.execCount(ctx,
		"UPDATE projects SET title = ?, description = ?, status = ?, updated_at = ? WHERE project_id = ?",
		p.Title, p.Description, string(p.Status), formatTime(p.UpdatedAt), p.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.ProjectID, err)
	}
	if n == 0 {
		return types.NotFoundf("project %s", p.ProjectID)
	}
	if _, err := t.exec(ctx, "DELETE FROM project_team WHERE project_id = ?", p.ProjectID); err != nil {
		return fmt.Errorf("clearing team: %w", err)
	}
	if _, err := t.exec(ctx, "DELETE FROM project_tasks WHERE project_id = ?", p.ProjectID); err != nil {
		return fmt.Errorf("clearing task cache: %w", err)
	}
	return t.writeProjectLists(ctx, p)
}

// DeleteProject removes the project row, team, and task cache. Features,
// tasks, and user references are left to the caller.
func (t *Tx) DeleteProject(ctx context.Context, id string) error {
	n, err := t.execCount(ctx, "DELETE FROM projects WHERE project_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if n == 0 {
		return types.NotFoundf("project %s", id)
	}
	if _, err := t.exec(ctx, "DELETE FROM project_team WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if _, err := t.exec(ctx, "DELETE FROM project_tasks WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("deleting task cache: %w", err)
	}
	return nil
}

// PullTasksFromProjects removes task ids from every project's task cache.
func (t *Tx) PullTasksFromProjects(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	var w where
	w.in("task_id", taskIDs)
	n, err := t.execCount(ctx, "DELETE FROM project_tasks"+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("pulling tasks from projects: %w", err)
	}
	return n, nil
}

func (t *Tx) writeProjectLists(ctx context.Context, p *types.Project) error {
	for i, userID := range p.Team {
		if _, err := t.exec(ctx,
			"INSERT INTO project_team (project_id, user_id, seq) VALUES (?, ?, ?)",
			p.ProjectID, userID, i,
		); err != nil {
			return fmt.Errorf("writing team member %s: %w", userID, err)
		}
	}
	for i, taskID := range p.Tasks {
		if _, err := t.exec(ctx,
			"INSERT INTO project_tasks (project_id, task_id, seq) VALUES (?, ?, ?)",
			p.ProjectID, taskID, i,
		); err != nil {
			return fmt.Errorf("writing task cache entry %s: %w", taskID, err)
		}
	}
	return nil
}

func (t *Tx) loadProjectLists(ctx context.Context, p *types.Project) error {
	team, err := t.queryStrings(ctx, "SELECT user_id FROM project_team WHERE project_id = ? ORDER BY seq", p.ProjectID)
	if err != nil {
		return fmt.Errorf("loading team of project %s: %w", p.ProjectID, err)
	}
	tasks, err := t.queryStrings(ctx, "SELECT task_id FROM project_tasks WHERE project_id = ? ORDER BY seq", p.ProjectID)
	if err != nil {
		return fmt.Errorf("loading tasks of project %s: %w", p.ProjectID, err)
	}
	p.Team = team
	p.Tasks = tasks
	return nil
}

func hydrateProject(row rowScanner) (*types.Project, error) {
	var (
		p                  types.Project
		status             string
		createdAt, updated string
	)
	if err := row.Scan(&p.ProjectID, &p.Title, &p.Description, &p.Admin.ID, &p.Admin.Username,
		&status, &p.Code, &createdAt, &updated); err != nil {
		return nil, err
	}
	p.Status = types.ProjectStatus(status)
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
