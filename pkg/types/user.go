package types

import (
	"slices"
	"time"
)

// User is an account. UserProjects lists projects the user administers,
// OtherProjects those where the user is a plain member. Tasks mirrors
// Task.AssignedTo: it holds exactly the ids of tasks assigned to this user.
type User struct {
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash,omitempty"`
	UserProjects  []string  `json:"user_projects"`
	OtherProjects []string  `json:"other_projects"`
	Tasks         []string  `json:"tasks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasTask reports whether taskID is in the user's task index.
func (u *User) HasTask(taskID string) bool {
	return slices.Contains(u.Tasks, taskID)
}

// AddTask adds taskID to the task index. Idempotent.
func (u *User) AddTask(taskID string) {
	if u.HasTask(taskID) {
		return
	}
	u.Tasks = append(u.Tasks, taskID)
	u.UpdatedAt = time.Now().UTC()
}

// RemoveTask drops taskID from the task index. Idempotent.
func (u *User) RemoveTask(taskID string) {
	u.Tasks = slices.DeleteFunc(u.Tasks, func(id string) bool { return id == taskID })
	u.UpdatedAt = time.Now().UTC()
}

// AddOwnedProject records a project the user administers. Idempotent.
func (u *User) AddOwnedProject(projectID string) {
	if slices.Contains(u.UserProjects, projectID) {
		return
	}
	u.UserProjects = append(u.UserProjects, projectID)
	u.UpdatedAt = time.Now().UTC()
}

// AddOtherProject records a project the user joined as a member. Idempotent.
func (u *User) AddOtherProject(projectID string) {
	if slices.Contains(u.OtherProjects, projectID) {
		return
	}
	u.OtherProjects = append(u.OtherProjects, projectID)
	u.UpdatedAt = time.Now().UTC()
}

// RemoveOtherProject drops projectID from the member list. Idempotent.
func (u *User) RemoveOtherProject(projectID string) {
	u.OtherProjects = slices.DeleteFunc(u.OtherProjects, func(id string) bool { return id == projectID })
	u.UpdatedAt = time.Now().UTC()
}
