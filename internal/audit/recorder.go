package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder writes entries into audit_logs. Writes are best-effort by
// policy: a failed write is reported on the fallback log channel and
// returned as false, and the triggering business operation proceeds.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	clock  func() time.Time
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{
		pool:   pool,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

const insertEntry = `INSERT INTO audit_logs (
	log_id, college_id, user_id, user_email, user_role,
	action_type, entity_type, entity_id, entity_name,
	old_value, new_value, change_summary,
	ip_address, user_agent, request_path, request_method,
	severity, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

// Record persists one entry. A single attempt, no retry; any failure
// is swallowed after logging so audit can never fail a request.
func (rec *Recorder) Record(ctx context.Context, e Entry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec.fallback("audit record panic", slog.Any("panic", r))
			ok = false
		}
	}()
	if rec == nil || rec.pool == nil {
		return false
	}
	if e.ActionType == "" || e.EntityType == "" {
		rec.fallback("audit entry missing action or entity type")
		return false
	}
	if e.LogID == "" {
		e.LogID = uuid.NewString()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = rec.clock()
	}
	_, err := rec.pool.Exec(ctx, insertEntry,
		e.LogID,
		optionalText(e.CollegeID),
		optionalText(e.ActorID),
		optionalText(e.ActorEmail),
		optionalText(e.ActorRole),
		e.ActionType,
		e.EntityType,
		optionalText(e.EntityID),
		optionalText(e.EntityName),
		optionalText(e.OldValue),
		optionalText(e.NewValue),
		optionalText(e.Summary),
		optionalText(e.Origin.IPAddress),
		optionalText(e.Origin.UserAgent),
		optionalText(e.Origin.Path),
		optionalText(e.Origin.Method),
		e.Severity,
		e.CreatedAt,
	)
	if err != nil {
		rec.fallback("audit write failed", slog.Any("error", err), slog.String("action", e.ActionType))
		return false
	}
	return true
}

// LoginSucceeded records a successful login as INFO.
func (rec *Recorder) LoginSucceeded(ctx context.Context, userID, email, collegeID string, origin Origin) bool {
	return rec.Record(ctx, Entry{
		CollegeID:  collegeID,
		ActorID:    userID,
		ActorEmail: email,
		ActionType: ActionLogin,
		EntityType: "session",
		EntityID:   userID,
		EntityName: email,
		Summary:    "User logged in successfully",
		Origin:     origin,
		Severity:   SeverityInfo,
	})
}

// LoginFailed records a failed login attempt as WARNING.
func (rec *Recorder) LoginFailed(ctx context.Context, email string, origin Origin) bool {
	return rec.Record(ctx, Entry{
		ActorEmail: email,
		ActionType: ActionLoginFailed,
		EntityType: "session",
		EntityName: email,
		Summary:    "Login attempt failed",
		Origin:     origin,
		Severity:   SeverityWarning,
	})
}

// Logout records a logout as INFO.
func (rec *Recorder) Logout(ctx context.Context, userID, email, collegeID string, origin Origin) bool {
	return rec.Record(ctx, Entry{
		CollegeID:  collegeID,
		ActorID:    userID,
		ActorEmail: email,
		ActionType: ActionLogout,
		EntityType: "session",
		EntityID:   userID,
		EntityName: email,
		Summary:    "User logged out",
		Origin:     origin,
		Severity:   SeverityInfo,
	})
}

// SecurityEvent records a security-relevant event, WARNING by default.
func (rec *Recorder) SecurityEvent(ctx context.Context, eventType, details, collegeID string, origin Origin) bool {
	summary := eventType + ": " + details
	if len(summary) > 120 {
		summary = summary[:120]
	}
	return rec.Record(ctx, Entry{
		CollegeID:  collegeID,
		ActionType: ActionSecurityViolation,
		EntityType: "security",
		EntityName: eventType,
		NewValue:   details,
		Summary:    summary,
		Origin:     origin,
		Severity:   SeverityWarning,
	})
}

func (rec *Recorder) fallback(msg string, attrs ...any) {
	if rec != nil && rec.logger != nil {
		rec.logger.Error(msg, attrs...)
	}
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
