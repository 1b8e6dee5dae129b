package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/platform/reqctx"
	"codebrick-site/backend/internal/telemetry"
)

// RequestLogger logs one line per request with status, size, duration and request id.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"client_ip":   reqctx.ClientIP(r.Context()),
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("http request")
				return
			}
			entry.Info("http request")
		})
	}
}

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// RequestTelemetry emits an http_request event after each request. Best-effort: the emit runs
// detached and never affects the response. If emitter is nil, the middleware no-ops.
// skip is the set of paths not to emit (e.g. /healthz).
func RequestTelemetry(emitter telemetry.EventEmitter, log logrus.FieldLogger, skip map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if emitter == nil || skip[r.URL.Path] {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta, _ := json.Marshal(httpRequestMetadata{
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   reqctx.ClientIP(r.Context()),
			})
			telemetry.EmitAsync(emitter, log, &telemetry.Event{
				Type:      "http_request",
				Source:    "http_middleware",
				Metadata:  meta,
				CreatedAt: time.Now().UTC(),
			})
		})
	}
}
