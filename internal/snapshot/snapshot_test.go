package snapshot

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/teamboard/internal/engine"
	"github.com/mesh-intelligence/teamboard/internal/sqlite"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

func setupStore(t *testing.T) types.Store {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func addUser(t *testing.T, store types.Store, name string) string {
	t.Helper()
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	u := &types.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, tx.InsertUser(ctx, u))
	require.NoError(t, tx.Commit())
	return u.UserID
}

// seed builds a small consistent board and returns the assigned task id.
func seed(t *testing.T, store types.Store) (adminID, taskID string) {
	t.Helper()
	ctx := context.Background()
	e := engine.New(store, engine.Options{})
	adminID = addUser(t, store, "admin")
	member := addUser(t, store, "member")
	p, err := e.CreateProject(ctx, adminID, "Apollo", "moon")
	require.NoError(t, err)
	_, err = e.JoinTeam(ctx, p.Code, member)
	require.NoError(t, err)
	root, err := e.CreateFeature(ctx, p.ProjectID, "root", "")
	require.NoError(t, err)
	_, err = e.CreateFeature(ctx, p.ProjectID, "child", root.FeatureID)
	require.NoError(t, err)
	tk, err := e.CreateTask(ctx, p.ProjectID, "t", "", root.FeatureID)
	require.NoError(t, err)
	_, err = e.AssignTask(ctx, tk.TaskID, member)
	require.NoError(t, err)
	return adminID, tk.TaskID
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	s := bufio.NewScanner(f)
	for s.Scan() {
		n++
	}
	require.NoError(t, s.Err())
	return n
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setupStore(t)
	_, taskID := seed(t, src)
	dir := t.TempDir()

	c, err := New(src, nil).Export(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 2, Projects: 1, Features: 2, Tasks: 1}, c)
	assert.Equal(t, 2, countLines(t, filepath.Join(dir, UsersFile)))
	assert.Equal(t, 2, countLines(t, filepath.Join(dir, FeaturesFile)))

	dst := setupStore(t)
	c, err = New(dst, nil).Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 2, Projects: 1, Features: 2, Tasks: 1}, c)

	e := engine.New(dst, engine.Options{})
	violations, err := e.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	tk, err := e.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskAssigned, tk.Status)
	u, err := e.GetUser(ctx, tk.AssignedTo)
	require.NoError(t, err)
	assert.Equal(t, []string{taskID}, u.Tasks)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestImportRejectsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := setupStore(t)
	seed(t, src)
	dir := t.TempDir()
	_, err := New(src, nil).Export(ctx, dir)
	require.NoError(t, err)

	_, err = New(src, nil).Import(ctx, dir)
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestImportRejectsViolations(t *testing.T) {
	ctx := context.Background()
	src := setupStore(t)
	adminID, _ := seed(t, src)
	dir := t.TempDir()
	_, err := New(src, nil).Export(ctx, dir)
	require.NoError(t, err)

	// Dropping the features leaves the task pointing at nothing.
	require.NoError(t, os.Remove(filepath.Join(dir, FeaturesFile)))

	dst := setupStore(t)
	_, err = New(dst, nil).Import(ctx, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	var verr *ViolationError
	require.True(t, errors.As(err, &verr))
	require.NotEmpty(t, verr.Violations)
	assert.Equal(t, engine.RuleTaskFeature, verr.Violations[0].Rule)

	_, err = engine.New(dst, engine.Options{}).GetUser(ctx, adminID)
	assert.ErrorIs(t, err, types.ErrNotFound, "nothing from the rejected import is visible")
}

func TestImportRejectsUnknownTaskStatus(t *testing.T) {
	ctx := context.Background()
	src := setupStore(t)
	_, taskID := seed(t, src)
	dir := t.TempDir()
	_, err := New(src, nil).Export(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, TasksFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(data), `"status":"assigned"`, `"status":"done"`, 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, err = New(setupStore(t), nil).Import(ctx, dir)
	var verr *ViolationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, engine.RuleTaskStatus, verr.Violations[0].Rule)
	assert.Equal(t, taskID, verr.Violations[0].ID)
}

func TestImportSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := `{"user_id":"u1","username":"ada","email":"ada@example.com"}
{not json
["wrong","shape"]

`
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte(content), 0o644))

	c, err := New(setupStore(t), nil).Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Users)
	assert.Equal(t, 2, c.Skipped)
}

func TestWriteJSONLReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	require.NoError(t, writeJSONL(path, []map[string]int{{"a": 1}, {"a": 2}}))
	require.NoError(t, writeJSONL(path, []map[string]int{{"a": 3}}))

	records, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":3}`, string(records[0]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
