package telemetry

import (
	"context"
	"time"
)

// Event is a best-effort telemetry record about something the site did.
type Event struct {
	Type       string // e.g. "submission_created"
	Source     string // component that produced the event
	RecordKind string // "contact" or "quote"; empty for non-record events
	RecordID   int64
	Metadata   []byte // optional JSON
	CreatedAt  time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
