package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/audit/domain"
	auditrepo "codebrick-site/backend/internal/audit/repository"
)

// AnonymousActor is recorded when an event has no authenticated subject (e.g. login_failure).
const AnonymousActor = "_anonymous"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by the login and
// logout handlers and by Middleware.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actor, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, log logrus.FieldLogger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, log: log, now: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actor, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if actor == "" {
		actor = AnonymousActor
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"action":   action,
			"resource": resource,
		}).Warn("audit: failed to log event")
	}
}
