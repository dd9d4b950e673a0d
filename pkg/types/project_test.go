package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestProject() *Project {
	return &Project{
		ProjectID: "p1",
		Admin:     AdminRef{ID: "admin", Username: "ada"},
		Team:      []string{"admin", "u1"},
		Status:    ProjectPending,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func TestProjectMembership(t *testing.T) {
	tests := []struct {
		name     string
		apply    func(*Project) error
		wantErr  error
		wantTeam []string
	}{
		{
			name:     "add new member",
			apply:    func(p *Project) error { return p.AddMember("u2") },
			wantTeam: []string{"admin", "u1", "u2"},
		},
		{
			name:     "add existing member conflicts",
			apply:    func(p *Project) error { return p.AddMember("u1") },
			wantErr:  ErrConflict,
			wantTeam: []string{"admin", "u1"},
		},
		{
			name:     "add empty id rejected",
			apply:    func(p *Project) error { return p.AddMember("") },
			wantErr:  ErrInvalidArgument,
			wantTeam: []string{"admin", "u1"},
		},
		{
			name:     "remove member",
			apply:    func(p *Project) error { return p.RemoveMember("u1") },
			wantTeam: []string{"admin"},
		},
		{
			name:     "remove admin forbidden",
			apply:    func(p *Project) error { return p.RemoveMember("admin") },
			wantErr:  ErrForbidden,
			wantTeam: []string{"admin", "u1"},
		},
		{
			name:     "remove stranger not found",
			apply:    func(p *Project) error { return p.RemoveMember("u9") },
			wantErr:  ErrNotFound,
			wantTeam: []string{"admin", "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProject()
			err := tt.apply(p)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantTeam, p.Team)
			assert.True(t, p.IsMember("admin"), "admin must stay on the team")
		})
	}
}

func TestProjectSetStatus(t *testing.T) {
	p := newTestProject()
	before := p.UpdatedAt

	assert.NoError(t, p.SetStatus(ProjectInProgress))
	assert.Equal(t, ProjectInProgress, p.Status)
	assert.True(t, p.UpdatedAt.After(before))

	err := p.SetStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, ProjectInProgress, p.Status)
}

func TestProjectTaskCache(t *testing.T) {
	p := newTestProject()
	p.AddTask("t1")
	p.AddTask("t2")
	p.AddTask("t1")
	assert.Equal(t, []string{"t1", "t2"}, p.Tasks)

	p.RemoveTask("t1")
	p.RemoveTask("missing")
	assert.Equal(t, []string{"t2"}, p.Tasks)
}
