package types

import (
	"slices"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project status constants.
const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// ValidProjectStatus reports whether s is a recognized project status.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// AdminRef identifies the project admin. Username is cached at creation.
type AdminRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Project is the root of an aggregate: it owns a feature forest and the tasks
// created under it. Team always contains Admin.ID. Tasks is a denormalized
// cache of the project's task ids; the tasks table is the source of truth.
type Project struct {
	ProjectID   string        `json:"project_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Admin       AdminRef      `json:"admin"`
	Team        []string      `json:"team"`
	Status      ProjectStatus `json:"status"`
	Code        string        `json:"code"`
	Tasks       []string      `json:"tasks"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsAdmin reports whether userID is the project admin.
func (p *Project) IsAdmin(userID string) bool {
	return userID != "" && p.Admin.ID == userID
}

// IsMember reports whether userID is on the team.
func (p *Project) IsMember(userID string) bool {
	return slices.Contains(p.Team, userID)
}

// AddMember appends userID to the team. Returns ErrConflict if the user is
// already a member.
func (p *Project) AddMember(userID string) error {
	if userID == "" {
		return InvalidArgumentf("member id is empty")
	}
	if p.IsMember(userID) {
		return Conflictf("user %s is already a member of project %s", userID, p.ProjectID)
	}
	p.Team = append(p.Team, userID)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveMember removes userID from the team. The admin can never be removed
// (ErrForbidden); removing a non-member returns ErrNotFound.
func (p *Project) RemoveMember(userID string) error {
	if p.IsAdmin(userID) {
		return Forbiddenf("admin %s cannot leave project %s", userID, p.ProjectID)
	}
	if !p.IsMember(userID) {
		return NotFoundf("user %s is not a member of project %s", userID, p.ProjectID)
	}
	p.Team = slices.DeleteFunc(p.Team, func(id string) bool { return id == userID })
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus changes the project status. Returns ErrInvalidArgument for an
// unknown status. Idempotent.
func (p *Project) SetStatus(status ProjectStatus) error {
	if !ValidProjectStatus(status) {
		return InvalidArgumentf("unknown project status %q", status)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AddTask records taskID in the task cache. Idempotent.
func (p *Project) AddTask(taskID string) {
	if slices.Contains(p.Tasks, taskID) {
		return
	}
	p.Tasks = append(p.Tasks, taskID)
	p.UpdatedAt = time.Now().UTC()
}

// RemoveTask drops taskID from the task cache. Idempotent.
func (p *Project) RemoveTask(taskID string) {
	p.Tasks = slices.DeleteFunc(p.Tasks, func(id string) bool { return id == taskID })
	p.UpdatedAt = time.Now().UTC()
}
