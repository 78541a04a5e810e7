package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/shared"
)

// Repository provides account and refresh-token persistence.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	StoreRefreshToken(ctx context.Context, tokenID, userID, tokenHash string, expiresAt time.Time) error
	IsRefreshTokenActive(ctx context.Context, userID, tokenHash string) (bool, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

// TamperMonitor is the slice of the security monitor the resolver uses.
type TamperMonitor interface {
	IsBlocked(ctx context.Context, credential string) bool
	Block(ctx context.Context, credential, reason string)
	NoteSuspicious(ctx context.Context, origin, kind string)
}

// AuditTrail records session lifecycle events.
type AuditTrail interface {
	LoginSucceeded(ctx context.Context, userID, email, collegeID string, origin audit.Origin) bool
	LoginFailed(ctx context.Context, email string, origin audit.Origin) bool
	Logout(ctx context.Context, userID, email, collegeID string, origin audit.Origin) bool
}

// Service resolves bearer credentials into principals and owns the
// login, refresh and logout flows.
type Service struct {
	repo    Repository
	codec   *Codec
	monitor TamperMonitor
	trail   AuditTrail
	logger  *slog.Logger
}

// NewService constructs the auth service.
func NewService(repo Repository, codec *Codec, monitor TamperMonitor, trail AuditTrail, logger *slog.Logger) *Service {
	return &Service{repo: repo, codec: codec, monitor: monitor, trail: trail, logger: logger}
}

// Authenticate resolves a raw bearer credential into a Principal.
// The revocation check runs before any cryptographic work so blocked
// credentials fail fast. Suspicious outcomes are counted against the
// caller's origin; that bookkeeping never fails the call itself.
func (s *Service) Authenticate(ctx context.Context, raw string, origin audit.Origin) (*rbac.Principal, *Error) {
	if raw == "" {
		return nil, failure(CodeMissing, "authentication token is required")
	}
	if s.monitor != nil && s.monitor.IsBlocked(ctx, raw) {
		s.noteSuspicious(ctx, origin, "BLOCKED_TOKEN_USAGE")
		return nil, failure(CodeRevoked, "this token has been revoked")
	}
	principal, err := s.codec.VerifyAccess(raw)
	if err != nil {
		if err.Code == CodeMalformed {
			s.noteSuspicious(ctx, origin, "MALFORMED_TOKEN")
		}
		return nil, err
	}
	return principal, nil
}

// Login validates email/password credentials and issues a token pair.
// The refresh token is stored server-side as a one-way hash so a
// leaked database cannot replay sessions.
func (s *Service) Login(ctx context.Context, email, password string, origin audit.Origin) (*TokenPair, *User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.auditLoginFailed(ctx, email, origin)
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.Active() {
		s.auditLoginFailed(ctx, email, origin)
		return nil, nil, shared.ErrAccountInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLoginFailed(ctx, email, origin)
		return nil, nil, shared.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if s.trail != nil {
		s.trail.LoginSucceeded(ctx, user.ID, user.Email, user.CollegeID, origin)
	}
	return pair, user, nil
}

// Refresh exchanges a valid refresh credential for a fresh access
// credential. Role and tenant are re-read from the store: the refresh
// artifact carries neither and is never trusted for them.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	subject, verr := s.codec.VerifyRefresh(refreshToken)
	if verr != nil {
		return "", time.Time{}, verr
	}
	active, err := s.repo.IsRefreshTokenActive(ctx, subject, hashToken(refreshToken))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: refresh lookup: %w", err)
	}
	if !active {
		return "", time.Time{}, failure(CodeRevoked, "refresh token has been revoked")
	}
	user, err := s.repo.FindByID(ctx, subject)
	if err != nil {
		return "", time.Time{}, failure(CodeRevoked, "account no longer exists")
	}
	if !user.Active() {
		return "", time.Time{}, failure(CodeRevoked, "account is no longer active")
	}
	return s.issueAccess(user)
}

// Logout revokes the refresh token, blocks the access credential for
// the remainder of its lifetime, and records the logout.
func (s *Service) Logout(ctx context.Context, p *rbac.Principal, accessToken, refreshToken string, origin audit.Origin) {
	if refreshToken != "" {
		if err := s.repo.RevokeRefreshToken(ctx, hashToken(refreshToken)); err != nil && s.logger != nil {
			s.logger.Warn("revoke refresh token", slog.Any("error", err))
		}
	}
	if s.monitor != nil && accessToken != "" {
		s.monitor.Block(ctx, accessToken, "logout")
	}
	if s.trail != nil && p != nil {
		s.trail.Logout(ctx, p.SubjectID, p.Email, p.CollegeID, origin)
	}
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	principal := &rbac.Principal{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CollegeID: user.CollegeID,
	}
	access, expiresAt, err := s.codec.IssueAccess(principal)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiry, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.StoreRefreshToken(ctx, uuid.NewString(), user.ID, hashToken(refresh), refreshExpiry); err != nil {
		return nil, fmt.Errorf("auth: store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *Service) issueAccess(user *User) (string, time.Time, error) {
	principal := &rbac.Principal{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CollegeID: user.CollegeID,
	}
	return s.codec.IssueAccess(principal)
}

func (s *Service) auditLoginFailed(ctx context.Context, email string, origin audit.Origin) {
	if s.trail != nil {
		s.trail.LoginFailed(ctx, email, origin)
	}
}

func (s *Service) noteSuspicious(ctx context.Context, origin audit.Origin, kind string) {
	if s.monitor != nil && origin.IPAddress != "" {
		s.monitor.NoteSuspicious(ctx, origin.IPAddress, kind)
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
