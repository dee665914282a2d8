package roles

import "feedbackportal/internal/domain/auth"

// RoleSets holds the user ids resolved for the elevated roles.
type RoleSets struct {
	AdminIDs      []string `json:"adminIds"`
	SupervisorIDs []string `json:"supervisorIds"`
}

func (r RoleSets) IsAdmin(userID string) bool {
	return contains(r.AdminIDs, userID)
}

func (r RoleSets) IsSupervisor(userID string) bool {
	return contains(r.SupervisorIDs, userID)
}

// SupervisorSet returns the supervisor ids as a lookup map.
func (r RoleSets) SupervisorSet() map[string]bool {
	out := make(map[string]bool, len(r.SupervisorIDs))
	for _, id := range r.SupervisorIDs {
		out[id] = true
	}
	return out
}

// RoleOf returns the effective role, admin taking precedence over supervisor.
func (r RoleSets) RoleOf(userID string) string {
	switch {
	case r.IsAdmin(userID):
		return auth.RoleAdmin
	case r.IsSupervisor(userID):
		return auth.RoleSupervisor
	default:
		return auth.RoleUser
	}
}

type Assignment struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
