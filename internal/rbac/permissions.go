package rbac

// rolePermissions is the static policy table mapping each role to the
// actions it may perform per resource. Loaded once at init and never
// mutated. SUPER_ADMIN bypasses the table entirely in Permits, so its
// row documents intent rather than gating anything.
var rolePermissions = map[Role]map[string][]string{
	RoleSuperAdmin: {
		ResourceColleges:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionSuspend},
		ResourceUsers:     {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionDeactivate},
		ResourceFaculty:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceStudents:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceSchedules: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceResults:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionUpload},
		ResourceClasses:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceQnA:       {ActionRead, ActionApprove, ActionAdmin},
		ResourceAnalytics: {ActionReadAll, ActionExport},
		ResourceAudit:     {ActionReadAll},
	},
	RoleCollegeAdmin: {
		ResourceColleges:  {ActionReadOwn},
		ResourceUsers:     {ActionCreate, ActionRead, ActionUpdate},
		ResourceFaculty:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceStudents:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceSchedules: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceResults:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionUpload},
		ResourceClasses:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceQnA:       {ActionRead, ActionApprove},
		ResourceAnalytics: {ActionReadOwn, ActionExportOwn},
		ResourceAudit:     {ActionReadOwn},
	},
	RoleFaculty: {
		ResourceUsers:     {ActionReadOwn},
		ResourceFaculty:   {ActionReadOwn, ActionUpdateOwn},
		ResourceStudents:  {ActionReadAssigned},
		ResourceSchedules: {ActionReadAssigned},
		ResourceResults:   {ActionReadAssigned},
		ResourceClasses:   {ActionReadAssigned},
		ResourceQnA:       {ActionRead, ActionRespond},
	},
	RoleStaff: {
		ResourceUsers:     {ActionReadOwn, ActionUpdateOwn},
		ResourceSchedules: {ActionRead},
		ResourceClasses:   {ActionRead},
		ResourceQnA:       {ActionRead},
	},
	RoleStudent: {
		ResourceUsers:     {ActionReadOwn, ActionUpdateOwn},
		ResourceFaculty:   {ActionReadPublic},
		ResourceStudents:  {ActionReadOwn},
		ResourceSchedules: {ActionReadOwn},
		ResourceResults:   {ActionReadOwn},
		ResourceClasses:   {ActionReadOwn},
		ResourceQnA:       {ActionRead},
	},
}

// permissionIndex holds the table compiled into sets for O(1) checks.
var permissionIndex = compilePermissions()

func compilePermissions() map[Role]map[string]map[string]struct{} {
	index := make(map[Role]map[string]map[string]struct{}, len(rolePermissions))
	for role, resources := range rolePermissions {
		byResource := make(map[string]map[string]struct{}, len(resources))
		for resource, actions := range resources {
			set := make(map[string]struct{}, len(actions))
			for _, action := range actions {
				set[action] = struct{}{}
			}
			byResource[resource] = set
		}
		index[role] = byResource
	}
	return index
}

// Permits reports whether the role may perform action on resource.
// SUPER_ADMIN always passes; unknown roles and resources never do.
func Permits(role Role, resource, action string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	resources, ok := permissionIndex[role]
	if !ok {
		return false
	}
	actions, ok := resources[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}
