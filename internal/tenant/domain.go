package tenant

// Failure codes for tenant scope resolution.
const (
	CodeNoTenantAssociation = "NO_TENANT_ASSOCIATION"
	CodeCrossTenantDenied   = "CROSS_TENANT_DENIED"
)

// Error is a typed tenant resolution failure.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "tenant: " + e.Code
	}
	return "tenant: " + e.Code + ": " + e.Detail
}

// ErrNoTenantAssociation marks a non-platform account with no tenant.
// Such accounts should not exist; the failure is a data-integrity
// signal, not caller misbehavior.
var ErrNoTenantAssociation = &Error{
	Code:   CodeNoTenantAssociation,
	Detail: "account is not associated with any college",
}

// ErrCrossTenantDenied marks an attempt to reach another tenant's data.
var ErrCrossTenantDenied = &Error{
	Code:   CodeCrossTenantDenied,
	Detail: "access to another college's data is not permitted",
}

// Context is the resolved tenant scope for one request. CollegeID is
// empty for a platform-wide super-admin read. CanWrite is false for
// every super-admin scope: platform operators read tenant data but
// never mutate it through tenant-scoped paths.
type Context struct {
	CollegeID    string
	IsSuperAdmin bool
	CanWrite     bool
}

// Scoped reports whether queries must be restricted to one tenant.
func (c Context) Scoped() bool {
	return c.CollegeID != ""
}
