package rbac

import "fmt"

// Denial reason codes returned to calling layers. Stable and
// machine-readable so tests and clients can tell "no token" from
// "wrong role" from "escalation attempt".
const (
	CodeAuthRequired     = "AUTH_REQUIRED"
	CodeInsufficientRole = "INSUFFICIENT_ROLE"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeRoleEscalation   = "ROLE_ESCALATION"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Code    string
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

func deny(code, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Authorize decides whether the principal may perform action on
// resource using the static permission table. Pure: no side effects,
// safe for concurrent use.
func Authorize(p *Principal, resource, action string) Decision {
	if p == nil {
		return deny(CodeAuthRequired, "authentication required")
	}
	if p.Role == RoleSuperAdmin {
		return Allow
	}
	if !Permits(p.Role, resource, action) {
		return deny(CodePermissionDenied, fmt.Sprintf("role %s may not %s %s", p.Role, action, resource))
	}
	return Allow
}

// AuthorizeRoles gates a whole route on role membership. SUPER_ADMIN
// always passes regardless of the allowed list.
func AuthorizeRoles(p *Principal, allowed ...Role) Decision {
	if p == nil {
		return deny(CodeAuthRequired, "authentication required")
	}
	if p.Role == RoleSuperAdmin {
		return Allow
	}
	for _, role := range allowed {
		if p.Role == role {
			return Allow
		}
	}
	return deny(CodeInsufficientRole, fmt.Sprintf("role %s is not permitted on this route", p.Role))
}

// AuthorizeRoleChange validates that actor may move a target user from
// targetCurrent to requested. The actor must strictly outrank both the
// target's current role and the requested role, which closes two
// escalation shapes: modifying a peer or superior, and granting a role
// the actor could not otherwise hold authority over.
func AuthorizeRoleChange(actor, targetCurrent, requested Role) Decision {
	if actor == RoleSuperAdmin {
		return Allow
	}
	if !Dominates(actor, targetCurrent) {
		return deny(CodeRoleEscalation, "cannot modify a user at or above your level")
	}
	if !Dominates(actor, requested) {
		return deny(CodeRoleEscalation, "cannot assign a role at or above your level")
	}
	return Allow
}

// AuthorizeSelf allows own-record access under a read_own/update_own
// style action. Access is granted regardless of the coarse role table
// provided the target subject is the principal itself; the calling
// operation must pass the target explicitly, self access is never
// inferred. Own-scoped actions on another subject are denied outright.
func AuthorizeSelf(p *Principal, targetSubjectID, resource, action string) Decision {
	if p == nil {
		return deny(CodeAuthRequired, "authentication required")
	}
	if p.Role == RoleSuperAdmin {
		return Allow
	}
	if targetSubjectID != "" && p.SubjectID == targetSubjectID {
		return Allow
	}
	return deny(CodePermissionDenied, fmt.Sprintf("%s on %s is limited to the owning subject", action, resource))
}
