package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListParams narrows the audit listing. Zero values mean "no filter".
type ListParams struct {
	CollegeID  string
	ActionType string
	EntityType string
	Severity   string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Repository provides read access to stored audit records.
type Repository interface {
	ListLogs(ctx context.Context, params ListParams) ([]Record, int, error)
	SecurityEvents(ctx context.Context, from, to time.Time, limit int) ([]Record, error)
	LoginHistory(ctx context.Context, userID string, limit int) ([]Record, error)
}

// PGRepository is the PostgreSQL implementation of Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `log_id, COALESCE(college_id, ''), COALESCE(user_id, ''), COALESCE(user_email, ''),
	COALESCE(user_role, ''), action_type, entity_type, COALESCE(entity_id, ''), COALESCE(entity_name, ''),
	COALESCE(change_summary, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), severity, created_at`

// ListLogs returns a filtered page of records plus the total count.
func (r *PGRepository) ListLogs(ctx context.Context, params ListParams) ([]Record, int, error) {
	var conditions []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if params.CollegeID != "" {
		add("college_id = $%d", params.CollegeID)
	}
	if params.ActionType != "" {
		add("action_type = $%d", params.ActionType)
	}
	if params.EntityType != "" {
		add("entity_type = $%d", params.EntityType)
	}
	if params.Severity != "" {
		add("severity = $%d", params.Severity)
	}
	if !params.From.IsZero() {
		add("created_at >= $%d", params.From)
	}
	if !params.To.IsZero() {
		add("created_at <= $%d", params.To)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count logs: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		recordColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list logs: %w", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SecurityEvents returns security-relevant records in the window:
// violation action types, failed logins, and anything WARNING or above.
func (r *PGRepository) SecurityEvents(ctx context.Context, from, to time.Time, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM audit_logs
		WHERE (action_type LIKE '%%SECURITY%%'
			OR action_type LIKE '%%VIOLATION%%'
			OR action_type = 'LOGIN_FAILED'
			OR severity IN ('WARNING', 'ERROR', 'CRITICAL'))
		  AND created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT $3`, recordColumns), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: security events: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// LoginHistory returns session actions for one user, newest first.
func (r *PGRepository) LoginHistory(ctx context.Context, userID string, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM audit_logs
		WHERE user_id = $1
		  AND action_type IN ('LOGIN', 'LOGIN_FAILED', 'LOGOUT')
		ORDER BY created_at DESC
		LIMIT $2`, recordColumns), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: login history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.LogID, &rec.CollegeID, &rec.ActorID, &rec.ActorEmail,
			&rec.ActorRole, &rec.ActionType, &rec.EntityType, &rec.EntityID,
			&rec.EntityName, &rec.Summary, &rec.IPAddress, &rec.UserAgent,
			&rec.Severity, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
