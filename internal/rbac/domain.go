package rbac

// Role is the closed set of platform roles. Values arriving from
// tokens or storage that fall outside this set rank as zero and hold
// no permissions.
type Role string

// Platform roles ordered by privilege.
const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleCollegeAdmin Role = "COLLEGE_ADMIN"
	RoleFaculty      Role = "FACULTY"
	RoleStaff        Role = "STAFF"
	RoleStudent      Role = "STUDENT"
)

// roleLevels assigns each role its hierarchy level. Higher level may
// manage strictly lower levels; the ordering is total.
var roleLevels = map[Role]int{
	RoleSuperAdmin:   100,
	RoleCollegeAdmin: 50,
	RoleFaculty:      10,
	RoleStaff:        5,
	RoleStudent:      1,
}

// Principal describes the authenticated actor for one request. It is
// built by the auth resolver from verified token claims and consumed
// read-only downstream.
type Principal struct {
	SubjectID string
	Email     string
	Role      Role
	// CollegeID is the principal's tenant. Empty only for SUPER_ADMIN.
	CollegeID string
}

// IsSuperAdmin reports whether the principal holds the platform role.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// Rank returns the hierarchy level for a role. Unknown roles rank 0.
func Rank(role Role) int {
	return roleLevels[role]
}

// Dominates reports whether role a strictly outranks role b.
func Dominates(a, b Role) bool {
	return Rank(a) > Rank(b)
}

// KnownRole reports whether the role belongs to the closed set.
func KnownRole(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// Resource names used by the permission table.
const (
	ResourceColleges  = "colleges"
	ResourceUsers     = "users"
	ResourceFaculty   = "faculty"
	ResourceStudents  = "students"
	ResourceSchedules = "schedules"
	ResourceResults   = "results"
	ResourceClasses   = "classes"
	ResourceQnA       = "qna"
	ResourceAnalytics = "analytics"
	ResourceAudit     = "audit"
)

// Action names used by the permission table.
const (
	ActionCreate       = "create"
	ActionRead         = "read"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionApprove      = "approve"
	ActionSuspend      = "suspend"
	ActionDeactivate   = "deactivate"
	ActionUpload       = "upload"
	ActionAdmin        = "admin"
	ActionRespond      = "respond"
	ActionReadOwn      = "read_own"
	ActionUpdateOwn    = "update_own"
	ActionReadAssigned = "read_assigned"
	ActionReadPublic   = "read_public"
	ActionReadAll      = "read_all"
	ActionExport       = "export"
	ActionExportOwn    = "export_own"
)
