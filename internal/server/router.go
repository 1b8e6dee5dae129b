// Package server assembles the HTTP router: middleware, API routes, admin routes and static files.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"codebrick-site/backend/internal/admin"
	adminhandler "codebrick-site/backend/internal/admin/handler"
	"codebrick-site/backend/internal/audit"
	audithandler "codebrick-site/backend/internal/audit/handler"
	healthhandler "codebrick-site/backend/internal/health/handler"
	intakehandler "codebrick-site/backend/internal/intake/handler"
	"codebrick-site/backend/internal/platform/reqctx"
	"codebrick-site/backend/internal/telemetry"
)

// Deps holds the handlers and middleware dependencies for the router.
type Deps struct {
	Intake *intakehandler.Handler
	// Admin serves login, logout, the admin page and the read endpoints. Requires Gate.
	Admin *adminhandler.Handler
	Gate  *admin.Gate
	// Audit serves GET /admin/audit. If nil, the route is not registered.
	Audit *audithandler.Handler
	// AuditLogger records gated admin requests. If nil, requests are not audited.
	AuditLogger audit.AuditLogger
	// Health serves /healthz. If nil, the route is not registered.
	Health *healthhandler.Handler
	// Emitter receives http_request events. If nil, none are emitted.
	Emitter telemetry.EventEmitter
	// PublicDir is served for every path not matched by a route. Empty disables static files.
	PublicDir      string
	AllowedOrigins []string
	// ServiceName names the otelhttp server spans.
	ServiceName string
	Log         logrus.FieldLogger
}

// unaudited are gated paths that either write their own audit entry or would only add noise.
var unaudited = map[string]bool{
	"/logout":      true,
	"/admin/audit": true,
}

// NewRouter returns the site's HTTP handler.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(reqctx.Middleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))
	r.Use(RequestTelemetry(d.Emitter, log, map[string]bool{"/healthz": true}))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Intake != nil {
		d.Intake.Register(r)
	}

	auditMW := audit.Middleware(d.AuditLogger, sessionActor, unaudited)
	if d.Admin != nil && d.Gate != nil {
		d.Admin.Register(r, auditMW)
	}
	if d.Gate != nil {
		r.Group(func(r chi.Router) {
			r.Use(d.Gate.RequireAPI)
			r.Use(auditMW)
			if d.Admin != nil {
				d.Admin.RegisterAPI(r)
			}
			if d.Audit != nil {
				d.Audit.Register(r)
			}
		})
	}

	if d.PublicDir != "" {
		r.NotFound(Static(d.PublicDir).ServeHTTP)
	}

	name := d.ServiceName
	if name == "" {
		name = "codebrick-site"
	}
	return otelhttp.NewHandler(r, name)
}

func sessionActor(r *http.Request) string {
	if s, ok := admin.SessionFrom(r.Context()); ok {
		return s.Subject
	}
	return ""
}
