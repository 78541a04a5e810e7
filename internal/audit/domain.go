package audit

import (
	"net/http"
	"time"
)

// Action types recorded in the trail.
const (
	ActionLogin             = "LOGIN"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionLogout            = "LOGOUT"
	ActionCreate            = "CREATE"
	ActionRead              = "READ"
	ActionUpdate            = "UPDATE"
	ActionDelete            = "DELETE"
	ActionApprove           = "APPROVE"
	ActionSuspend           = "SUSPEND"
	ActionSecurityViolation = "SECURITY_VIOLATION"
	ActionCrossTenant       = "CROSS_TENANT_VIOLATION"
)

// Severity levels.
const (
	SeverityDebug    = "DEBUG"
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// Origin captures where a request came from.
type Origin struct {
	IPAddress string
	UserAgent string
	Path      string
	Method    string
}

// OriginFromRequest extracts caller origin details from the request.
func OriginFromRequest(r *http.Request) Origin {
	if r == nil {
		return Origin{}
	}
	ua := r.UserAgent()
	if len(ua) > 500 {
		ua = ua[:500]
	}
	return Origin{
		IPAddress: r.RemoteAddr,
		UserAgent: ua,
		Path:      r.URL.Path,
		Method:    r.Method,
	}
}

// Entry is one append-only audit record. Actor fields are denormalized
// at write time so later role or email changes never rewrite history.
// Old and new values are opaque serialized payloads; this layer stores
// and returns exactly what it was given.
type Entry struct {
	LogID      string
	CollegeID  string
	ActorID    string
	ActorEmail string
	ActorRole  string
	ActionType string
	EntityType string
	EntityID   string
	EntityName string
	OldValue   string
	NewValue   string
	Summary    string
	Origin     Origin
	Severity   string
	CreatedAt  time.Time
}

// Record is a stored audit entry as returned by query paths.
type Record struct {
	LogID      string    `json:"log_id"`
	CollegeID  string    `json:"college_id,omitempty"`
	ActorID    string    `json:"user_id,omitempty"`
	ActorEmail string    `json:"user_email,omitempty"`
	ActorRole  string    `json:"user_role,omitempty"`
	ActionType string    `json:"action_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	EntityName string    `json:"entity_name,omitempty"`
	Summary    string    `json:"change_summary,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Severity   string    `json:"severity"`
	CreatedAt  time.Time `json:"created_at"`
}
