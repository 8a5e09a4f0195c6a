package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAdminRoles(t *testing.T) {
	parsed, err := ParseAdminRoles("")
	assert.NoError(t, err)
	assert.False(t, parsed.Configured())

	parsed, err = ParseAdminRoles("admin")
	assert.NoError(t, err)
	assert.True(t, parsed.Configured())
	assert.True(t, parsed.Match([]string{"admin"}))
	assert.False(t, parsed.Match([]string{"user"}))

	parsed, err = ParseAdminRoles(" admin , superuser ")
	assert.NoError(t, err)
	assert.True(t, parsed.Match([]string{"user", "superuser"}))

	_, err = ParseAdminRoles("admin,,editor")
	assert.Error(t, err)

	_, err = ParseAdminRoles("admin,bad role")
	assert.Error(t, err)
}

func TestAdminRolesMatch(t *testing.T) {
	roles := AdminRoleList("admin", "superuser")
	assert.True(t, roles.Match([]string{"editor", "admin"}))
	assert.False(t, roles.Match([]string{"editor"}))
	assert.False(t, roles.Match(nil))

	// Unconfigured lists never match; callers gate on Configured first.
	assert.False(t, AdminRoles{}.Match([]string{"admin"}))
	assert.False(t, AdminRoles{}.Configured())
}
