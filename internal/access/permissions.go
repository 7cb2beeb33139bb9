package access

import "cybercase/internal/constants"

var rolePermissions = map[string][]string{
	constants.RoleAdmin: {
		constants.PermView, constants.PermCreate, constants.PermEdit,
		constants.PermDelete, constants.PermManageUsers,
	},
	constants.RoleInvestigator: {constants.PermView, constants.PermCreate, constants.PermEdit},
	constants.RoleAnalyst:      {constants.PermView, constants.PermCreate},
	constants.RoleViewer:       {constants.PermView},
}

// CheckPermission reports whether role may perform action. Unknown roles may do nothing.
func CheckPermission(role, action string) bool {
	for _, p := range rolePermissions[role] {
		if p == action {
			return true
		}
	}
	return false
}

// Permissions returns the actions granted to role.
func Permissions(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidRole reports whether role is one of the fixed roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
