package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Rules reported by CheckInvariants.
const (
	RuleTaskProject     = "task-project"
	RuleTaskFeature     = "task-feature"
	RuleFeatureProject  = "feature-project"
	RuleFeatureParent   = "feature-parent"
	RuleFeatureCycle    = "feature-cycle"
	RuleAssignmentIndex = "assignment-index"
	RuleProjectCache    = "project-task-cache"
	RuleProjectRefs     = "user-project-refs"
	RuleAdminOnTeam     = "admin-on-team"
	RuleTaskStatus      = "task-status"
	RuleProjectStatus   = "project-status"
)

// Violation is one broken consistency rule.
type Violation struct {
	Rule    string `json:"rule"`
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s %s: %s", v.Rule, v.Entity, v.ID, v.Message)
}

// Check runs CheckInvariants over the whole store in a read-only
// transaction.
func (e *Engine) Check(ctx context.Context) ([]Violation, error) {
	var out []Violation
	err := e.view(ctx, "check", func(ctx context.Context, tx types.Tx) error {
		var err error
		out, err = CheckInvariants(ctx, tx)
		return err
	})
	return out, err
}

// CheckInvariants loads every entity visible to tx and reports each broken
// cross-entity rule. An empty result means the store is consistent.
func CheckInvariants(ctx context.Context, tx types.Tx) ([]Violation, error) {
	projects, err := tx.FindProjects(ctx, types.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	features, err := tx.FindFeatures(ctx, types.FeatureFilter{})
	if err != nil {
		return nil, err
	}
	tasks, err := tx.FindTasks(ctx, types.TaskFilter{})
	if err != nil {
		return nil, err
	}
	users, err := tx.FindUsers(ctx, types.UserFilter{})
	if err != nil {
		return nil, err
	}

	projectByID := make(map[string]*types.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ProjectID] = p
	}
	featureByID := make(map[string]*types.Feature, len(features))
	for _, f := range features {
		featureByID[f.FeatureID] = f
	}
	taskByID := make(map[string]*types.Task, len(tasks))
	for _, t := range tasks {
		taskByID[t.TaskID] = t
	}
	userByID := make(map[string]*types.User, len(users))
	for _, u := range users {
		userByID[u.UserID] = u
	}

	var out []Violation
	add := func(rule, entity, id, format string, args ...any) {
		out = append(out, Violation{Rule: rule, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	for _, f := range features {
		if _, ok := projectByID[f.ProjectID]; !ok {
			add(RuleFeatureProject, "feature", f.FeatureID, "project %s does not exist", f.ProjectID)
		}
		if f.ParentFeatureID == "" {
			continue
		}
		parent, ok := featureByID[f.ParentFeatureID]
		switch {
		case !ok:
			add(RuleFeatureParent, "feature", f.FeatureID, "parent %s does not exist", f.ParentFeatureID)
		case parent.ProjectID != f.ProjectID:
			add(RuleFeatureParent, "feature", f.FeatureID, "parent %s is in project %s", parent.FeatureID, parent.ProjectID)
		}
		if onCycle(f, featureByID) {
			add(RuleFeatureCycle, "feature", f.FeatureID, "parent chain loops")
		}
	}

	for _, t := range tasks {
		if !types.ValidTaskStatus(t.Status) {
			add(RuleTaskStatus, "task", t.TaskID, "unknown status %q", t.Status)
		}
		if _, ok := projectByID[t.ProjectID]; !ok {
			add(RuleTaskProject, "task", t.TaskID, "project %s does not exist", t.ProjectID)
		}
		if t.FeatureID != "" {
			f, ok := featureByID[t.FeatureID]
			switch {
			case !ok:
				add(RuleTaskFeature, "task", t.TaskID, "feature %s does not exist", t.FeatureID)
			case f.ProjectID != t.ProjectID:
				add(RuleTaskFeature, "task", t.TaskID, "feature %s is in project %s", f.FeatureID, f.ProjectID)
			}
		}
		if t.AssignedTo != "" {
			u, ok := userByID[t.AssignedTo]
			if !ok || !u.HasTask(t.TaskID) {
				add(RuleAssignmentIndex, "task", t.TaskID, "assignee %s does not list the task", t.AssignedTo)
			}
		}
	}

	for _, u := range users {
		for _, id := range u.Tasks {
			t, ok := taskByID[id]
			switch {
			case !ok:
				add(RuleAssignmentIndex, "user", u.UserID, "lists missing task %s", id)
			case t.AssignedTo != u.UserID:
				add(RuleAssignmentIndex, "user", u.UserID, "lists task %s assigned to %q", id, t.AssignedTo)
			}
		}
		for _, id := range u.UserProjects {
			p, ok := projectByID[id]
			if !ok || !p.IsAdmin(u.UserID) {
				add(RuleProjectRefs, "user", u.UserID, "owns project %s it does not administer", id)
			}
		}
		for _, id := range u.OtherProjects {
			p, ok := projectByID[id]
			if !ok || !p.IsMember(u.UserID) || p.IsAdmin(u.UserID) {
				add(RuleProjectRefs, "user", u.UserID, "lists project %s it is not a plain member of", id)
			}
		}
	}

	for _, p := range projects {
		if !types.ValidProjectStatus(p.Status) {
			add(RuleProjectStatus, "project", p.ProjectID, "unknown status %q", p.Status)
		}
		if !p.IsMember(p.Admin.ID) {
			add(RuleAdminOnTeam, "project", p.ProjectID, "admin %s is not on the team", p.Admin.ID)
		}
		for _, id := range p.Tasks {
			t, ok := taskByID[id]
			if !ok || t.ProjectID != p.ProjectID {
				add(RuleProjectCache, "project", p.ProjectID, "task cache lists foreign or missing task %s", id)
			}
		}
		for _, id := range p.Team {
			u, ok := userByID[id]
			if !ok {
				continue
			}
			if id == p.Admin.ID {
				if !slices.Contains(u.UserProjects, p.ProjectID) {
					add(RuleProjectRefs, "project", p.ProjectID, "admin %s does not list the project", id)
				}
			} else if !slices.Contains(u.OtherProjects, p.ProjectID) {
				add(RuleProjectRefs, "project", p.ProjectID, "member %s does not list the project", id)
			}
		}
	}
	return out, nil
}

// onCycle reports whether walking up from f revisits a feature.
func onCycle(f *types.Feature, byID map[string]*types.Feature) bool {
	seen := map[string]bool{f.FeatureID: true}
	cur := f
	for cur.ParentFeatureID != "" {
		next, ok := byID[cur.ParentFeatureID]
		if !ok {
			return false
		}
		if seen[next.FeatureID] {
			return true
		}
		seen[next.FeatureID] = true
		cur = next
	}
	return false
}
