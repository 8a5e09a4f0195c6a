package config

import (
	"fmt"
	"strings"
)

// AdminRoles is the parsed admin-role allow-list. The zero value means no
// allow-list is configured and every signed-in user passes admin checks.
type AdminRoles struct {
	roles []string
}

// ParseAdminRoles validates a comma-separated role list once at startup.
// An empty value disables admin checks; a malformed value is an error, never
// a silent fallback.
func ParseAdminRoles(value string) (AdminRoles, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return AdminRoles{}, nil
	}
	parts := strings.Split(value, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		role := strings.TrimSpace(part)
		if role == "" {
			return AdminRoles{}, fmt.Errorf("admin roles %q: empty role entry", value)
		}
		if strings.ContainsAny(role, " \t") {
			return AdminRoles{}, fmt.Errorf("admin roles %q: role %q contains whitespace", value, role)
		}
		roles = append(roles, role)
	}
	return AdminRoles{roles: roles}, nil
}

// AdminRoleList builds an allow-list from an explicit role slice.
func AdminRoleList(roles ...string) AdminRoles {
	return AdminRoles{roles: roles}
}

func (a AdminRoles) Configured() bool {
	return len(a.roles) > 0
}

// Match reports whether any of the user's roles is in the allow-list.
func (a AdminRoles) Match(userRoles []string) bool {
	for _, userRole := range userRoles {
		for _, role := range a.roles {
			if userRole == role {
				return true
			}
		}
	}
	return false
}
