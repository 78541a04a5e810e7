package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusiq/campusiq/internal/rbac"
)

// Token lifetimes. Both are configurable; these are the defaults.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

const refreshTokenType = "refresh"

// accessClaims is the wire shape of an access credential. college_id
// is always present, serialized as the empty string when the subject
// has no tenant.
type accessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	CollegeID string `json:"college_id"`
	Role      string `json:"role"`
}

// refreshClaims carries only the subject and a type discriminator.
// Role and tenant deliberately never appear here: they can change
// between issuance and use and must be re-derived from the store at
// refresh time, not trusted from the stale artifact.
type refreshClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// Codec signs and verifies bearer credentials. Algorithm is fixed at
// HMAC-SHA256; verification rejects anything else.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec constructs a Codec. Zero TTLs fall back to the defaults.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess signs an access credential for the principal.
func (c *Codec) IssueAccess(p *rbac.Principal) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.accessTTL)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     p.Email,
		CollegeID: p.CollegeID,
		Role:      string(p.Role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// IssueRefresh signs a refresh credential for the subject.
func (c *Codec) IssueRefresh(subjectID string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.refreshTTL)
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: refreshTokenType,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyAccess validates an access credential and maps its claims onto
// a Principal. Expiry is checked here with no grace: a credential whose
// exp equals the current instant is already expired.
func (c *Codec) VerifyAccess(raw string) (*rbac.Principal, *Error) {
	var claims accessClaims
	if err := c.parse(raw, &claims); err != nil {
		return nil, err
	}
	if err := c.checkRequiredClaims(&claims.RegisteredClaims); err != nil {
		return nil, err
	}
	return &rbac.Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      rbac.Role(claims.Role),
		CollegeID: claims.CollegeID,
	}, nil
}

// VerifyRefresh validates a refresh credential and returns its subject.
func (c *Codec) VerifyRefresh(raw string) (string, *Error) {
	var claims refreshClaims
	if err := c.parse(raw, &claims); err != nil {
		return "", err
	}
	if err := c.checkRequiredClaims(&claims.RegisteredClaims); err != nil {
		return "", err
	}
	if claims.Type != refreshTokenType {
		return "", failure(CodeMalformed, "not a refresh token")
	}
	return claims.Subject, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims) *Error {
	if strings.TrimSpace(raw) == "" {
		return failure(CodeMissing, "credential is required")
	}
	if strings.Count(raw, ".") != 2 {
		return failure(CodeMalformed, "credential is not a three-segment token")
	}
	// Claims are validated manually below so the expiry boundary is
	// under our control rather than the library's leeway handling.
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return mapJWTError(err)
	}
	return nil
}

// checkRequiredClaims enforces the presence of sub, iat and exp.
// Absence is MALFORMED even when the signature verifies.
func (c *Codec) checkRequiredClaims(claims *jwt.RegisteredClaims) *Error {
	if claims.Subject == "" {
		return failure(CodeMalformed, "sub claim is required")
	}
	if claims.IssuedAt == nil {
		return failure(CodeMalformed, "iat claim is required")
	}
	if claims.ExpiresAt == nil {
		return failure(CodeMalformed, "exp claim is required")
	}
	if !claims.ExpiresAt.Time.After(c.now()) {
		return failure(CodeExpired, "credential has expired")
	}
	return nil
}

func mapJWTError(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return failure(CodeSignatureInvalid, "credential signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return failure(CodeSignatureInvalid, "credential algorithm is not accepted")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return failure(CodeMalformed, "credential could not be parsed")
	default:
		return failure(CodeMalformed, "credential is invalid")
	}
}
