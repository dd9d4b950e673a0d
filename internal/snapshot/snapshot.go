// Package snapshot exports the whole store to JSONL files and imports it
// back in a single transaction.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/teamboard/internal/engine"
	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Snapshot file names inside the snapshot directory.
const (
	UsersFile    = "users.jsonl"
	ProjectsFile = "projects.jsonl"
	FeaturesFile = "features.jsonl"
	TasksFile    = "tasks.jsonl"
)

// Counts reports how many records a snapshot operation moved.
type Counts struct {
	Users    int `json:"users"`
	Projects int `json:"projects"`
	Features int `json:"features"`
	Tasks    int `json:"tasks"`
	Skipped  int `json:"skipped"`
}

// ViolationError rejects an import whose data breaks consistency rules.
type ViolationError struct {
	Violations []engine.Violation
}

func (e *ViolationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("snapshot has %d consistency violations: %s", len(e.Violations), strings.Join(lines, "; "))
}

func (e *ViolationError) Unwrap() error { return types.ErrInvalidArgument }

// Snapshot moves store contents to and from a directory.
type Snapshot struct {
	store types.Store
	log   *logging.Logger
}

// New returns a Snapshot over store. A nil log discards output.
func New(store types.Store, log *logging.Logger) *Snapshot {
	if log == nil {
		log = logging.Nop()
	}
	return &Snapshot{store: store, log: log.With("component", "snapshot")}
}

// Export writes every entity to dir, one file per entity type. The reads
// share one transaction so the files agree with each other.
func (s *Snapshot) Export(ctx context.Context, dir string) (Counts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Counts{}, fmt.Errorf("creating snapshot dir: %w", err)
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Counts{}, err
	}
	defer tx.Rollback()

	users, err := tx.FindUsers(ctx, types.UserFilter{})
	if err != nil {
		return Counts{}, err
	}
	projects, err := tx.FindProjects(ctx, types.ProjectFilter{})
	if err != nil {
		return Counts{}, err
	}
	features, err := tx.FindFeatures(ctx, types.FeatureFilter{})
	if err != nil {
		return Counts{}, err
	}
	tasks, err := tx.FindTasks(ctx, types.TaskFilter{})
	if err != nil {
		return Counts{}, err
	}

	if err := writeJSONL(filepath.Join(dir, UsersFile), users); err != nil {
		return Counts{}, err
	}
	if err := writeJSONL(filepath.Join(dir, ProjectsFile), projects); err != nil {
		return Counts{}, err
	}
	if err := writeJSONL(filepath.Join(dir, FeaturesFile), features); err != nil {
		return Counts{}, err
	}
	if err := writeJSONL(filepath.Join(dir, TasksFile), tasks); err != nil {
		return Counts{}, err
	}
	c := Counts{Users: len(users), Projects: len(projects), Features: len(features), Tasks: len(tasks)}
	s.log.Info("snapshot exported", "dir", dir, "users", c.Users, "projects", c.Projects,
		"features", c.Features, "tasks", c.Tasks)
	return c, nil
}

// Import loads a snapshot from dir into an empty store. Everything is
// inserted in one transaction, which is rolled back if the store already
// holds data (ErrConflict) or the loaded data fails the invariant checker
// (*ViolationError). Malformed lines are skipped and counted.
func (s *Snapshot) Import(ctx context.Context, dir string) (Counts, error) {
	var c Counts
	users, err := decodeFile[types.User](filepath.Join(dir, UsersFile), &c.Skipped)
	if err != nil {
		return Counts{}, err
	}
	projects, err := decodeFile[types.Project](filepath.Join(dir, ProjectsFile), &c.Skipped)
	if err != nil {
		return Counts{}, err
	}
	features, err := decodeFile[types.Feature](filepath.Join(dir, FeaturesFile), &c.Skipped)
	if err != nil {
		return Counts{}, err
	}
	tasks, err := decodeFile[types.Task](filepath.Join(dir, TasksFile), &c.Skipped)
	if err != nil {
		return Counts{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Counts{}, err
	}
	defer tx.Rollback()

	if err := requireEmpty(ctx, tx); err != nil {
		return Counts{}, err
	}
	for _, u := range users {
		if err := tx.InsertUser(ctx, u); err != nil {
			return Counts{}, fmt.Errorf("importing user %s: %w", u.UserID, err)
		}
	}
	for _, p := range projects {
		if err := tx.InsertProject(ctx, p); err != nil {
			return Counts{}, fmt.Errorf("importing project %s: %w", p.ProjectID, err)
		}
	}
	for _, f := range features {
		if err := tx.InsertFeature(ctx, f); err != nil {
			return Counts{}, fmt.Errorf("importing feature %s: %w", f.FeatureID, err)
		}
	}
	for _, t := range tasks {
		if err := tx.InsertTask(ctx, t); err != nil {
			return Counts{}, fmt.Errorf("importing task %s: %w", t.TaskID, err)
		}
	}

	violations, err := engine.CheckInvariants(ctx, tx)
	if err != nil {
		return Counts{}, err
	}
	if len(violations) > 0 {
		s.log.Warn("snapshot rejected", "dir", dir, "violations", len(violations))
		return Counts{}, &ViolationError{Violations: violations}
	}
	if err := tx.Commit(); err != nil {
		return Counts{}, err
	}

	c.Users, c.Projects, c.Features, c.Tasks = len(users), len(projects), len(features), len(tasks)
	if c.Skipped > 0 {
		s.log.Warn("snapshot lines skipped", "dir", dir, "skipped", c.Skipped)
	}
	s.log.Info("snapshot imported", "dir", dir, "users", c.Users, "projects", c.Projects,
		"features", c.Features, "tasks", c.Tasks)
	return c, nil
}

// decodeFile reads path and decodes each record as a T. Records that do not
// decode are added to skipped.
func decodeFile[T any](path string, skipped *int) ([]*T, error) {
	records, bad, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	*skipped += bad
	out := make([]*T, 0, len(records))
	for _, rec := range records {
		v := new(T)
		if err := json.Unmarshal(rec, v); err != nil {
			*skipped++
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func requireEmpty(ctx context.Context, tx types.Tx) error {
	users, err := tx.FindUsers(ctx, types.UserFilter{})
	if err != nil {
		return err
	}
	projects, err := tx.FindProjects(ctx, types.ProjectFilter{})
	if err != nil {
		return err
	}
	if len(users) > 0 || len(projects) > 0 {
		return types.Conflictf("store is not empty: %d users, %d projects", len(users), len(projects))
	}
	return nil
}
