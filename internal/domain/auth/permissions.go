package auth

const (
	RoleUser       = "user"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

const (
	PermProfilesRead     = "profiles.read"
	PermAssessmentSubmit = "assessment.submit"
	PermResultsReadOwn   = "results.read_own"
	PermResultsReadTeam  = "results.read_team"
	PermResultsReadAll   = "results.read_all"
	PermTeamRate         = "team.rate"
	PermPinsGive         = "pins.give"
	PermTriwulanVote     = "triwulan.vote"
	PermTriwulanManage   = "triwulan.manage"
	PermPeriodsManage    = "periods.manage"
	PermUsersManage      = "users.manage"
	PermSystemAdmin      = "admin.system"
)

var DefaultPermissions = []string{
	PermProfilesRead,
	PermAssessmentSubmit,
	PermResultsReadOwn,
	PermResultsReadTeam,
	PermResultsReadAll,
	PermTeamRate,
	PermPinsGive,
	PermTriwulanVote,
	PermTriwulanManage,
	PermPeriodsManage,
	PermUsersManage,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleUser: {
		PermProfilesRead,
		PermAssessmentSubmit,
		PermResultsReadOwn,
		PermPinsGive,
		PermTriwulanVote,
	},
	RoleSupervisor: {
		PermProfilesRead,
		PermAssessmentSubmit,
		PermResultsReadOwn,
		PermResultsReadTeam,
		PermTeamRate,
		PermPinsGive,
		PermTriwulanVote,
	},
	RoleAdmin: {
		PermProfilesRead,
		PermResultsReadOwn,
		PermResultsReadTeam,
		PermResultsReadAll,
		PermPinsGive,
		PermTriwulanManage,
		PermPeriodsManage,
		PermUsersManage,
		PermSystemAdmin,
	},
}

// RoleHasPermission reports whether role grants permission. Unknown roles are
// treated as plain users.
func RoleHasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		perms = RolePermissions[RoleUser]
	}
	for _, perm := range perms {
		if perm == permission {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}
