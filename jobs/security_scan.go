package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusiq/campusiq/internal/audit"
)

// Recorder is the slice of the audit recorder the scan uses.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) bool
}

// SecurityScanJob sweeps recent audit activity for origins with dense
// security-relevant events and surfaces them to operators.
type SecurityScanJob struct {
	Pool     *pgxpool.Pool
	Recorder Recorder
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewSecurityScanJob initialises the security sweep handler.
func NewSecurityScanJob(pool *pgxpool.Pool, recorder Recorder, logger *slog.Logger) *SecurityScanJob {
	return &SecurityScanJob{
		Pool:     pool,
		Recorder: recorder,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type hotOrigin struct {
	IPAddress string
	Events    int
}

// Handle executes one security sweep.
func (j *SecurityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("security scan: handler not configured")
	}
	var payload SecurityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}
	if payload.Threshold <= 0 {
		payload.Threshold = 10
	}

	start := j.now()
	logger := j.logger().With(
		slog.Int("window_hours", payload.WindowHours),
		slog.Int("threshold", payload.Threshold),
	)
	logger.Info("starting security sweep")

	origins, err := j.scan(ctx, payload, start)
	if err != nil {
		logger.Error("sweep failed", slog.Any("error", err))
		return err
	}

	for _, origin := range origins {
		logger.Warn("dense security activity from origin",
			slog.String("ip", origin.IPAddress),
			slog.Int("events", origin.Events),
		)
	}
	if len(origins) > 0 && j.Recorder != nil {
		j.Recorder.Record(ctx, audit.Entry{
			ActionType: audit.ActionSecurityViolation,
			EntityType: "security",
			EntityName: "security sweep",
			Summary:    fmt.Sprintf("%d origins exceeded %d security events in %dh", len(origins), payload.Threshold, payload.WindowHours),
			Severity:   audit.SeverityWarning,
		})
	}

	logger.Info("completed security sweep",
		slog.Int("hot_origins", len(origins)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *SecurityScanJob) scan(ctx context.Context, payload SecurityScanPayload, now time.Time) ([]hotOrigin, error) {
	if j.Pool == nil {
		return nil, errors.New("security scan: pool not configured")
	}
	from := now.Add(-time.Duration(payload.WindowHours) * time.Hour)
	rows, err := j.Pool.Query(ctx, `
		SELECT ip_address, COUNT(*)
		FROM audit_logs
		WHERE created_at >= $1
		  AND ip_address IS NOT NULL
		  AND severity IN ('WARNING', 'ERROR', 'CRITICAL')
		GROUP BY ip_address
		HAVING COUNT(*) >= $2
		ORDER BY COUNT(*) DESC`,
		from, payload.Threshold,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var origins []hotOrigin
	for rows.Next() {
		var origin hotOrigin
		if err := rows.Scan(&origin.IPAddress, &origin.Events); err != nil {
			return nil, err
		}
		origins = append(origins, origin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return origins, nil
}

func (j *SecurityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSecurityScan))
	}
	return slog.Default().With(slog.String("job", TaskSecurityScan))
}

func (j *SecurityScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
