package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const userColumns = "user_id, username, email, password_hash, created_at, updated_at"

// GetUser returns a user with project references and task index.
func (t *Tx) GetUser(ctx context.Context, id string) (*types.User, error) {
	row := t.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", id)
	u, err := hydrateUser(row)
	if err != nil {
		return nil, t.notFound(err, "user", id)
	}
	if err := t.loadUserLists(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindUserByEmail looks up a user by email, compared case-insensitively.
func (t *Tx) FindUserByEmail(ctx context.Context, email string) (*types.User, error) {
	row := t.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(email))
	u, err := hydrateUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFoundf("user with email %q", email)
		}
		return nil, fmt.Errorf("finding user by email: %w", t.d.ClassifyError(err))
	}
	if err := t.loadUserLists(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindUsers returns matching users ordered by creation.
func (t *Tx) FindUsers(ctx context.Context, f types.UserFilter) ([]*types.User, error) {
	var w where
	w.in("user_id", f.IDs)
	w.subIn("user_id", "SELECT user_id FROM user_tasks", "task_id", f.TaskIDs)
	rows, err := t.query(ctx, "SELECT "+userColumns+" FROM users"+w.String()+" ORDER BY created_at, user_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	results := []*types.User{}
	for rows.Next() {
		u, err := hydrateUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("hydrating user: %w", err)
		}
		results = append(results, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", t.d.ClassifyError(err))
	}
	for _, u := range results {
		if err := t.loadUserLists(ctx, u); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// InsertUser creates a user. Emails are stored lower-cased; a duplicate
// email wraps types.ErrConflict.
func (t *Tx) InsertUser(ctx context.Context, u *types.User) error {
	if err := stamp(&u.UserID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	_, err := t.exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		u.UserID, u.Username, u.Email, u.PasswordHash, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return t.writeUserLists(ctx, u)
}

// UpdateUser overwrites the user row and replaces its project references and
// task index.
func (t *Tx) UpdateUser(ctx context.Context, u *types.User) error {
	u.Email = strings.ToLower(u.Email)
	n, err := t.execCount(ctx,
		"UPDATE users SET username = ?, email = ?, password_hash = ?, updated_at = ? WHERE user_id = ?",
		u.Username, u.Email, u.PasswordHash, formatTime(u.UpdatedAt), u.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.UserID, err)
	}
	if n == 0 {
		return types.NotFoundf("user %s", u.UserID)
	}
	if _, err := t.exec(ctx, "DELETE FROM user_project_refs WHERE user_id = ?", u.UserID); err != nil {
		return fmt.Errorf("clearing project references: %w", err)
	}
	if _, err := t.exec(ctx, "DELETE FROM user_tasks WHERE user_id = ?", u.UserID); err != nil {
		return fmt.Errorf("clearing task index: %w", err)
	}
	return t.writeUserLists(ctx, u)
}

// PullTasksFromUsers removes task ids from every user's task index.
func (t *Tx) PullTasksFromUsers(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	var w where
	w.in("task_id", taskIDs)
	if _, err := t.exec(ctx,
		"UPDATE users SET updated_at = ? WHERE user_id IN (SELECT user_id FROM user_tasks"+w.String()+")",
		append([]any{formatTime(time.Now())}, w.args...)...,
	); err != nil {
		return 0, fmt.Errorf("touching users: %w", err)
	}
	n, err := t.execCount(ctx, "DELETE FROM user_tasks"+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("pulling tasks from users: %w", err)
	}
	return n, nil
}

// PullProjectFromUsers removes projectID from every user's project lists.
func (t *Tx) PullProjectFromUsers(ctx context.Context, projectID string) (int64, error) {
	if _, err := t.exec(ctx,
		"UPDATE users SET updated_at = ? WHERE user_id IN (SELECT user_id FROM user_project_refs WHERE project_id = ?)",
		formatTime(time.Now()), projectID,
	); err != nil {
		return 0, fmt.Errorf("touching users: %w", err)
	}
	n, err := t.execCount(ctx, "DELETE FROM user_project_refs WHERE project_id = ?", projectID)
	if err != nil {
		return 0, fmt.Errorf("pulling project %s from users: %w", projectID, err)
	}
	return n, nil
}

func (t *Tx) writeUserLists(ctx context.Context, u *types.User) error {
	seq := 0
	for _, ref := range []struct {
		role string
		ids  []string
	}{{roleAdmin, u.UserProjects}, {roleMember, u.OtherProjects}} {
		for _, projectID := range ref.ids {
			if _, err := t.exec(ctx,
				"INSERT INTO user_project_refs (user_id, project_id, role, seq) VALUES (?, ?, ?, ?)",
				u.UserID, projectID, ref.role, seq,
			); err != nil {
				return fmt.Errorf("writing project reference %s: %w", projectID, err)
			}
			seq++
		}
	}
	for i, taskID := range u.Tasks {
		if _, err := t.exec(ctx,
			"INSERT INTO user_tasks (user_id, task_id, seq) VALUES (?, ?, ?)",
			u.UserID, taskID, i,
		); err != nil {
			return fmt.Errorf("writing task index entry %s: %w", taskID, err)
		}
	}
	return nil
}

func (t *Tx) loadUserLists(ctx context.Context, u *types.User) error {
	var err error
	if u.UserProjects, err = t.queryStrings(ctx,
		"SELECT project_id FROM user_project_refs WHERE user_id = ? AND role = ? ORDER BY seq",
		u.UserID, roleAdmin,
	); err != nil {
		return fmt.Errorf("loading projects of user %s: %w", u.UserID, err)
	}
	if u.OtherProjects, err = t.queryStrings(ctx,
		"SELECT project_id FROM user_project_refs WHERE user_id = ? AND role = ? ORDER BY seq",
		u.UserID, roleMember,
	); err != nil {
		return fmt.Errorf("loading memberships of user %s: %w", u.UserID, err)
	}
	if u.Tasks, err = t.queryStrings(ctx,
		"SELECT task_id FROM user_tasks WHERE user_id = ? ORDER BY seq", u.UserID,
	); err != nil {
		return fmt.Errorf("loading tasks of user %s: %w", u.UserID, err)
	}
	return nil
}

func hydrateUser(row rowScanner) (*types.User, error) {
	var (
		u                  types.User
		createdAt, updated string
	)
	if err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
