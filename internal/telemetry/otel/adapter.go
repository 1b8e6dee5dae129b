package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"codebrick-site/backend/internal/telemetry"
)

const scopeName = "codebrick.telemetry"

// recordEmitter is the subset of otellog.Logger used by the adapter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(scopeName)}
}

// NewEventEmitterWithLogger is NewEventEmitter for an arbitrary log sink.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	if event.RecordKind != "" {
		rec.AddAttributes(
			otellog.String("record_kind", event.RecordKind),
			otellog.Int64("record_id", event.RecordID),
		)
	}
	e.logger.Emit(ctx, rec)
	return nil
}
