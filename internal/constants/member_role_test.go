package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberRoleIsValid(t *testing.T) {
	assert.True(t, RoleParent.IsValid())
	assert.True(t, RoleGuardian.IsValid())
	assert.True(t, RoleViewer.IsValid())
	assert.False(t, MemberRole("admin").IsValid())
	assert.False(t, MemberRole("").IsValid())
}

func TestMemberRoleIsParenting(t *testing.T) {
	assert.True(t, RoleParent.IsParenting())
	assert.False(t, RoleGuardian.IsParenting())
	assert.False(t, RoleViewer.IsParenting())
}

func TestParseMemberRole(t *testing.T) {
	role, err := ParseMemberRole("parent")
	assert.NoError(t, err)
	assert.Equal(t, RoleParent, role)

	_, err = ParseMemberRole("owner")
	assert.Error(t, err)
}
