package enums

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHR      Role = "hr"
	RoleIT      Role = "it"
	RoleAuditor Role = "auditor"
)

var Roles = []Role{RoleAdmin, RoleHR, RoleIT, RoleAuditor}

// Role gates. Reads only need an authenticated caller.
var (
	AssetManagers      = []Role{RoleIT, RoleAdmin}
	AssignmentManagers = []Role{RoleIT, RoleAdmin}
	EmployeeManagers   = []Role{RoleHR, RoleAdmin}
	MaintenanceLoggers = []Role{RoleIT, RoleAdmin}
	AuditReaders       = []Role{RoleAuditor, RoleAdmin}
)

func HasAnyRole(held []string, allowed ...Role) bool {
	for _, h := range held {
		for _, a := range allowed {
			if h == string(a) {
				return true
			}
		}
	}
	return false
}
