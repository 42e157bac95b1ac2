package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRole_Valid(t *testing.T) {
	for _, r := range []UserRole{RoleUser, RoleModerator, RoleAdmin} {
		assert.True(t, r.Valid(), r)
	}
	for _, r := range []UserRole{"", "Admin", "superadmin", "user,admin", "mod"} {
		assert.False(t, r.Valid(), r)
	}
}

func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleModerator))
	assert.False(t, UserRole("bogus").AtLeast(RoleUser))
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&User{Role: RoleUser, IsSuperuser: true}).IsAdmin())
	assert.False(t, (&User{Role: RoleModerator}).IsAdmin())
}
