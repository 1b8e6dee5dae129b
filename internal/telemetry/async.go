package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server stops before shutting down OTel
// providers, so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// Use from request handlers for fire-and-forget telemetry; errors are logged to log (or the
// standard logger when nil).
//
// emitter and event may be nil; EmitAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() so request cancellation does not abort the emit.
func EmitAsync(emitter EventEmitter, log logrus.FieldLogger, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.WithError(err).WithField("event_type", event.Type).Warn("telemetry: async emit failed")
		}
	}()
}
