// Package reqctx carries per-request values (client IP) through the context.
package reqctx

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// WithClientIP returns a context with the client IP set.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP from ctx, or "unknown".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// Middleware stores the request's client IP in the context. Run it after chi's RealIP so
// proxy headers are already folded into RemoteAddr.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), hostOnly(r.RemoteAddr))))
	})
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
