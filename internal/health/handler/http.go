// Package handler serves the readiness check used by load balancers and CI.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/platform/httpx"
)

const checkTimeout = 2 * time.Second

// Check is one readiness probe. A nil error means healthy.
type Check func(ctx context.Context) error

// Handler serves GET /healthz.
type Handler struct {
	checks map[string]Check
	log    logrus.FieldLogger
}

// New returns a Handler running checks by name (e.g. "database", "policy").
func New(checks map[string]Check, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{checks: checks, log: log}
}

// Register mounts the health route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
}

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// Health runs every check and returns 200 {"status":"ok"} or 503 with the failing names.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var failed []string
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.WithError(err).WithField("check", name).Warn("health: check failed")
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: failed})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
