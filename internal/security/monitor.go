package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/campusiq/campusiq/internal/audit"
)

// Auditor receives security events raised by the monitor.
type Auditor interface {
	SecurityEvent(ctx context.Context, eventType, details, collegeID string, origin audit.Origin) bool
}

// Observer counts monitor events, typically backed by the
// observability package.
type Observer interface {
	ObserveSecurityEvent(kind string)
}

// Monitor tracks revoked credentials and suspicious per-origin
// behavior. It must never fail the caller's request: every internal
// error is swallowed after logging to the fallback channel.
type Monitor struct {
	store     Store
	auditor   Auditor
	observer  Observer
	logger    *slog.Logger
	threshold int64
}

// DefaultSuspiciousThreshold is the per-origin activity count at which
// a WARNING audit event is raised for operator visibility.
const DefaultSuspiciousThreshold = 10

// NewMonitor constructs a Monitor. A zero threshold falls back to the
// default policy of 10.
func NewMonitor(store Store, auditor Auditor, observer Observer, logger *slog.Logger, threshold int64) *Monitor {
	if threshold <= 0 {
		threshold = DefaultSuspiciousThreshold
	}
	return &Monitor{store: store, auditor: auditor, observer: observer, logger: logger, threshold: threshold}
}

// Fingerprint returns the one-way fingerprint stored in place of raw
// credentials.
func Fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Block revokes a credential by fingerprint. Idempotent: repeat calls
// for the same credential neither grow state nor repeat the audit
// event. Once blocked, a credential never returns to service.
func (m *Monitor) Block(ctx context.Context, credential, reason string) {
	fp := Fingerprint(credential)
	already, err := m.store.Contains(ctx, blockKey(fp))
	if err != nil {
		m.warn("blocklist lookup failed", err)
	}
	if already {
		return
	}
	if err := m.store.Add(ctx, blockKey(fp)); err != nil {
		m.warn("blocklist add failed", err)
		return
	}
	m.observe("TOKEN_BLOCKED")
	if m.auditor != nil {
		m.auditor.SecurityEvent(ctx, "TOKEN_BLOCKED",
			fmt.Sprintf(`{"reason":%q,"token_hash":%q}`, reason, fp[:16]), "", audit.Origin{})
	}
}

// IsBlocked reports whether the credential has been revoked. A store
// failure reads as not blocked; signature and expiry checks still
// stand between a credential and acceptance.
func (m *Monitor) IsBlocked(ctx context.Context, credential string) bool {
	blocked, err := m.store.Contains(ctx, blockKey(Fingerprint(credential)))
	if err != nil {
		m.warn("blocklist lookup failed", err)
		return false
	}
	return blocked
}

// NoteSuspicious counts a suspicious event against an origin. Crossing
// the threshold raises one WARNING audit event; it does not block
// future requests from that origin, rate-limiting on this signal is
// the serving layer's policy.
func (m *Monitor) NoteSuspicious(ctx context.Context, origin, kind string) {
	count, err := m.store.Increment(ctx, suspiciousKey(origin))
	if err != nil {
		m.warn("suspicious counter failed", err)
		return
	}
	m.observe(kind)
	if m.logger != nil {
		m.logger.Warn("suspicious activity",
			slog.String("origin", origin),
			slog.String("kind", kind),
			slog.Int64("count", count),
		)
	}
	if count == m.threshold {
		m.observe("IP_RATE_LIMITED")
		if m.auditor != nil {
			m.auditor.SecurityEvent(ctx, "IP_RATE_LIMITED",
				fmt.Sprintf(`{"ip":%q,"count":%d}`, origin, count), "",
				audit.Origin{IPAddress: origin})
		}
	}
}

func (m *Monitor) observe(kind string) {
	if m.observer != nil {
		m.observer.ObserveSecurityEvent(kind)
	}
}

func (m *Monitor) warn(msg string, err error) {
	if m.logger != nil {
		m.logger.Warn(msg, slog.Any("error", err))
	}
}

func blockKey(fingerprint string) string {
	return "blocked:" + fingerprint
}

func suspiciousKey(origin string) string {
	return "suspicious:" + origin
}
