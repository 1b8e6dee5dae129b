// Package handler serves the admin login, logout, page and read endpoints over HTTP.
package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/admin"
	"codebrick-site/backend/internal/audit"
	"codebrick-site/backend/internal/platform/httpx"
	"codebrick-site/backend/internal/security"
	"codebrick-site/backend/internal/submission/domain"
)

const (
	msgInvalidLogin = "Invalid username or password."
	msgReadFailed   = "Database error."
)

// Reader is the read side of the submission repository.
type Reader interface {
	ListContacts(ctx context.Context) ([]*domain.ContactMessage, error)
	ListQuotes(ctx context.Context) ([]*domain.QuoteRequest, error)
}

// PasswordVerifier checks a password against a stored hash (security.Hasher).
type PasswordVerifier interface {
	Verify(hash string, password []byte) (bool, error)
}

// Credentials is the single admin account.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Handler serves the admin routes.
type Handler struct {
	gate      *admin.Gate
	reader    Reader
	verifier  PasswordVerifier
	creds     Credentials
	audit     audit.AuditLogger
	publicDir string
	log       logrus.FieldLogger
}

// New returns an admin Handler. auditLogger and log may be nil.
func New(gate *admin.Gate, reader Reader, verifier PasswordVerifier, creds Credentials, auditLogger audit.AuditLogger, publicDir string, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		gate: gate, reader: reader, verifier: verifier, creds: creds,
		audit: auditLogger, publicDir: publicDir, log: log,
	}
}

// Register mounts the login route and the page routes (gated with a redirect). pageMiddleware
// runs inside the gate, after the session is on the context.
func (h *Handler) Register(r chi.Router, pageMiddleware ...func(http.Handler) http.Handler) {
	r.Post("/admin-login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePage)
		r.Use(pageMiddleware...)
		r.Get("/admin", h.Page)
		r.Get("/logout", h.Logout)
	})
}

// RegisterAPI mounts the JSON read routes. The caller wraps r with gate.RequireAPI.
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Get("/admin/data", h.Contacts)
	r.Get("/admin/quotes", h.Quotes)
}

// Login verifies the admin credentials and starts a session. Form posts are redirected;
// JSON callers get a JSON result.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	wantsJSON := httpx.WantsJSON(r)
	fields, err := httpx.ReadFields(w, r)
	if err != nil {
		h.loginFailed(w, r, wantsJSON, "")
		return
	}
	username := fields.Get("username")
	password := fields.Get("password")
	if !h.checkCredentials(username, password) {
		h.loginFailed(w, r, wantsJSON, username)
		return
	}
	s, err := h.gate.StartSession(w, username)
	if err != nil {
		h.log.WithError(err).Error("admin: issue session failed")
		httpx.WriteError(w, http.StatusInternalServerError, "Login failed.")
		return
	}
	h.logEvent(r.Context(), username, "login_success", "session", "session="+s.ID)
	if wantsJSON {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) checkCredentials(username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.creds.Username)) == 1
	ok, err := h.verifier.Verify(h.creds.PasswordHash, []byte(password))
	if errors.Is(err, security.ErrNoPasswordHash) {
		h.log.Error("admin: ADMIN_PASSWORD_HASH is not set; admin login is disabled")
		return false
	}
	if err != nil {
		h.log.WithError(err).Warn("admin: password verification failed")
		return false
	}
	return userOK && ok
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, wantsJSON bool, username string) {
	meta := ""
	if username != "" {
		meta = "username=" + username
	}
	h.logEvent(r.Context(), "", "login_failure", "session", meta)
	if wantsJSON {
		httpx.WriteError(w, http.StatusUnauthorized, msgInvalidLogin)
		return
	}
	http.Redirect(w, r, admin.LoginPage+"?error=1", http.StatusSeeOther)
}

// Logout revokes the current session, clears the cookie and redirects to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := admin.SessionFrom(r.Context()); ok {
		h.gate.EndSession(r.Context(), w, s)
		h.logEvent(r.Context(), s.Subject, "logout", "session", "session="+s.ID)
	}
	http.Redirect(w, r, admin.LoginPage, http.StatusFound)
}

// Page serves PUBLIC_DIR/admin.html.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.publicDir, "admin.html")
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

type contactJSON struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Message   string  `json:"message"`
	CreatedAt *string `json:"created_at"`
}

type quoteJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	ProjectType string  `json:"project_type"`
	Location    string  `json:"location"`
	SiteStatus  *string `json:"site_status"`
	ProjectSize *string `json:"project_size"`
	Urgency     *string `json:"urgency"`
	HireStatus  *string `json:"hire_status"`
	Timeline    *string `json:"timeline"`
	Description *string `json:"description"`
	CreatedAt   *string `json:"created_at"`
}

// Contacts returns every contact message, newest first.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.reader.ListContacts(r.Context())
	if err != nil {
		h.log.WithError(err).Error("admin: list contacts failed")
		httpx.WriteError(w, http.StatusInternalServerError, msgReadFailed)
		return
	}
	out := make([]contactJSON, 0, len(list))
	for _, c := range list {
		out = append(out, contactJSON{
			ID: c.ID, Name: c.Name, Email: c.Email, Message: c.Message,
			CreatedAt: timestamp(c.CreatedAt),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Quotes returns every quote request, newest first. Absent optional fields are null.
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.reader.ListQuotes(r.Context())
	if err != nil {
		h.log.WithError(err).Error("admin: list quotes failed")
		httpx.WriteError(w, http.StatusInternalServerError, msgReadFailed)
		return
	}
	out := make([]quoteJSON, 0, len(list))
	for _, q := range list {
		out = append(out, quoteJSON{
			ID: q.ID, Name: q.Name, Email: q.Email, Phone: q.Phone,
			ProjectType: q.ProjectType, Location: q.Location,
			SiteStatus: optional(q.SiteStatus), ProjectSize: optional(q.ProjectSize),
			Urgency: optional(q.Urgency), HireStatus: optional(q.HireStatus),
			Timeline: optional(q.Timeline), Description: optional(q.Description),
			CreatedAt: timestamp(q.CreatedAt),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) logEvent(ctx context.Context, actor, action, resource, metadata string) {
	if h.audit != nil {
		h.audit.LogEvent(ctx, actor, action, resource, metadata)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// timestamp formats t as RFC 3339 UTC. An unknown time is null, like the optional fields.
func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return optional(t.UTC().Format(time.RFC3339))
}
