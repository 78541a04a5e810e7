package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusiq/campusiq/internal/rbac"
)

const testSecret = "test-secret-key"

func testCodec(now time.Time) *Codec {
	c := NewCodec(testSecret, time.Hour, 30*24*time.Hour)
	c.now = func() time.Time { return now }
	return c
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)

	principal := &rbac.Principal{
		SubjectID: "u1",
		Email:     "a@b.com",
		Role:      rbac.RoleCollegeAdmin,
		CollegeID: "c1",
	}
	token, expiresAt, err := codec.IssueAccess(principal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", now.Add(time.Hour), expiresAt)
	}

	got, verr := codec.VerifyAccess(token)
	if verr != nil {
		t.Fatalf("verify: %v", verr)
	}
	if got.SubjectID != "u1" || got.Email != "a@b.com" || got.Role != rbac.RoleCollegeAdmin || got.CollegeID != "c1" {
		t.Fatalf("claims did not survive the round trip: %+v", got)
	}
}

func TestAccessTokenEmptyTenantSentinel(t *testing.T) {
	codec := testCodec(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	token, _, err := codec.IssueAccess(&rbac.Principal{SubjectID: "u1", Email: "root@hq", Role: rbac.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, verr := codec.VerifyAccess(token)
	if verr != nil {
		t.Fatalf("verify: %v", verr)
	}
	if got.CollegeID != "" {
		t.Fatalf("expected empty tenant, got %q", got.CollegeID)
	}
}

func TestExpiryBoundaryIsStrict(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(issued)
	token, expiresAt, err := codec.IssueAccess(&rbac.Principal{SubjectID: "u1", Role: rbac.RoleStudent, CollegeID: "c1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One second before expiry: still valid.
	codec.now = func() time.Time { return expiresAt.Add(-time.Second) }
	if _, verr := codec.VerifyAccess(token); verr != nil {
		t.Fatalf("expected valid before expiry, got %v", verr)
	}

	// Exactly at expiry: already expired, no grace.
	codec.now = func() time.Time { return expiresAt }
	_, verr := codec.VerifyAccess(token)
	if verr == nil || verr.Code != CodeExpired {
		t.Fatalf("expected EXPIRED at exact boundary, got %v", verr)
	}

	codec.now = func() time.Time { return expiresAt.Add(time.Second) }
	if _, verr := codec.VerifyAccess(token); verr == nil || verr.Code != CodeExpired {
		t.Fatalf("expected EXPIRED after boundary, got %v", verr)
	}
}

func TestVerifyRejectsWrongSignature(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	other := NewCodec("a-different-secret", time.Hour, time.Hour)
	other.now = codec.now

	token, _, err := other.IssueAccess(&rbac.Principal{SubjectID: "u1", Role: rbac.RoleStudent, CollegeID: "c1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, verr := codec.VerifyAccess(token)
	if verr == nil || verr.Code != CodeSignatureInvalid {
		t.Fatalf("expected SIGNATURE_INVALID, got %v", verr)
	}
}

func TestVerifyRejectsMalformedShapes(t *testing.T) {
	codec := testCodec(time.Now().UTC())
	for _, raw := range []string{"not-a-token", "a.b", "a.b.c.d"} {
		_, verr := codec.VerifyAccess(raw)
		if verr == nil || verr.Code != CodeMalformed {
			t.Fatalf("%q: expected MALFORMED, got %v", raw, verr)
		}
	}
	_, verr := codec.VerifyAccess("")
	if verr == nil || verr.Code != CodeMissing {
		t.Fatalf("expected MISSING for empty credential, got %v", verr)
	}
}

func TestVerifyRequiresRegisteredClaims(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)

	// Signed correctly but missing iat: malformed despite a valid signature.
	claims := jwt.MapClaims{
		"sub": "u1",
		"exp": now.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, verr := codec.VerifyAccess(token)
	if verr == nil || verr.Code != CodeMalformed {
		t.Fatalf("expected MALFORMED for missing iat, got %v", verr)
	}

	// Missing sub.
	claims = jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, verr = codec.VerifyAccess(token); verr == nil || verr.Code != CodeMalformed {
		t.Fatalf("expected MALFORMED for missing sub, got %v", verr)
	}
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	claims := jwt.MapClaims{
		"sub": "u1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, verr := codec.VerifyAccess(token)
	if verr == nil || verr.Code != CodeSignatureInvalid {
		t.Fatalf("expected SIGNATURE_INVALID for HS512, got %v", verr)
	}
}

func TestRefreshTokenCarriesNoRoleOrTenant(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	token, _, err := codec.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	subject, verr := codec.VerifyRefresh(token)
	if verr != nil {
		t.Fatalf("verify: %v", verr)
	}
	if subject != "u1" {
		t.Fatalf("expected subject u1, got %q", subject)
	}

	// A refresh token must never verify as an access credential with
	// role or tenant claims.
	principal, verr := codec.VerifyAccess(token)
	if verr != nil {
		t.Fatalf("parse refresh as access: %v", verr)
	}
	if principal.Role != "" || principal.CollegeID != "" {
		t.Fatalf("refresh token leaked role/tenant claims: %+v", principal)
	}
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	codec := testCodec(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	token, _, err := codec.IssueAccess(&rbac.Principal{SubjectID: "u1", Role: rbac.RoleStudent, CollegeID: "c1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, verr := codec.VerifyRefresh(token)
	if verr == nil || verr.Code != CodeMalformed {
		t.Fatalf("expected MALFORMED for access token on refresh path, got %v", verr)
	}
}
