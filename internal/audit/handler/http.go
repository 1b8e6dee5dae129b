// Package handler serves the admin audit log over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	auditrepo "codebrick-site/backend/internal/audit/repository"
	"codebrick-site/backend/internal/platform/httpx"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Handler serves GET /admin/audit. Mount it behind the admin gate.
type Handler struct {
	repo auditrepo.Repository
	log  logrus.FieldLogger
}

// New returns an audit Handler backed by repo.
func New(repo auditrepo.Repository, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{repo: repo, log: log}
}

// Register mounts the audit routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.List)
}

type auditLogJSON struct {
	ID        string  `json:"id"`
	Actor     string  `json:"actor"`
	Action    string  `json:"action"`
	Resource  string  `json:"resource"`
	IP        string  `json:"ip"`
	Metadata  *string `json:"metadata"`
	CreatedAt string  `json:"created_at"`
}

// List returns the newest audit entries. ?limit= defaults to 100 and is capped at 500.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}
	logs, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("audit: list failed")
		httpx.WriteError(w, http.StatusInternalServerError, "Database error.")
		return
	}
	out := make([]auditLogJSON, 0, len(logs))
	for _, a := range logs {
		item := auditLogJSON{
			ID: a.ID, Actor: a.Actor, Action: a.Action, Resource: a.Resource, IP: a.IP,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		}
		if a.Metadata != "" {
			m := a.Metadata
			item.Metadata = &m
		}
		out = append(out, item)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
