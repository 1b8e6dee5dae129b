package audit

import (
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ActorFunc returns the authenticated subject for r, or "" when there is none.
type ActorFunc func(r *http.Request) string

// Middleware records an audit entry after each request that has an actor. Mount it inside
// the admin gate so the session is already on the context. skip lists paths not to audit.
// Writes are best-effort and never change the response.
func Middleware(logger AuditLogger, actor ActorFunc, skip map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger == nil || skip[r.URL.Path] {
				return
			}
			who := actor(r)
			if who == "" {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ar := ParseRoute(r.Method, r.URL.Path)
			logger.LogEvent(r.Context(), who, ar.Action, ar.Resource, "status="+strconv.Itoa(status))
		})
	}
}
