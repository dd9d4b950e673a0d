package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTaskIndex(t *testing.T) {
	u := &User{UserID: "u1"}
	u.AddTask("t1")
	u.AddTask("t2")
	u.AddTask("t1")
	assert.Equal(t, []string{"t1", "t2"}, u.Tasks)
	assert.True(t, u.HasTask("t2"))

	u.RemoveTask("t1")
	u.RemoveTask("t1")
	assert.Equal(t, []string{"t2"}, u.Tasks)
	assert.False(t, u.HasTask("t1"))
}

func TestUserProjectRefs(t *testing.T) {
	u := &User{UserID: "u1"}
	u.AddOwnedProject("p1")
	u.AddOwnedProject("p1")
	u.AddOtherProject("p2")
	u.AddOtherProject("p3")
	assert.Equal(t, []string{"p1"}, u.UserProjects)
	assert.Equal(t, []string{"p2", "p3"}, u.OtherProjects)

	u.RemoveOtherProject("p2")
	assert.Equal(t, []string{"p3"}, u.OtherProjects)
}
