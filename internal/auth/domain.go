package auth

import (
	"time"

	"github.com/campusiq/campusiq/internal/rbac"
)

// Failure codes for credential resolution. Stable and machine readable
// so callers can tell "no token" from "expired" from "revoked".
const (
	CodeMissing          = "MISSING"
	CodeMalformed        = "MALFORMED"
	CodeExpired          = "EXPIRED"
	CodeSignatureInvalid = "SIGNATURE_INVALID"
	CodeRevoked          = "REVOKED"
)

// Error is a typed authentication failure.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "auth: " + e.Code
	}
	return "auth: " + e.Code + ": " + e.Detail
}

func failure(code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// User account statuses.
const (
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User is an account record as read from the store.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         rbac.Role
	CollegeID    string
	Status       string
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u != nil && u.Status == StatusActive
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
