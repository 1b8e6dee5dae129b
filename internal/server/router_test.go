package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"codebrick-site/backend/internal/admin"
	adminhandler "codebrick-site/backend/internal/admin/handler"
	"codebrick-site/backend/internal/audit"
	audithandler "codebrick-site/backend/internal/audit/handler"
	auditrepo "codebrick-site/backend/internal/audit/repository"
	"codebrick-site/backend/internal/db"
	"codebrick-site/backend/internal/db/schema"
	healthhandler "codebrick-site/backend/internal/health/handler"
	"codebrick-site/backend/internal/intake"
	intakehandler "codebrick-site/backend/internal/intake/handler"
	"codebrick-site/backend/internal/notify"
	"codebrick-site/backend/internal/platform/reqctx"
	"codebrick-site/backend/internal/security"
	"codebrick-site/backend/internal/session"
	"codebrick-site/backend/internal/submission/repository"
)

type site struct {
	handler   http.Handler
	auditRepo *auditrepo.SQLiteRepository
}

func newSite(t *testing.T) *site {
	t.Helper()
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()

	dir := t.TempDir()
	path := filepath.Join(dir, "site.db")
	conn, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := schema.Ensure(ctx, conn, path, log); err != nil {
		t.Fatalf("schema.Ensure: %v", err)
	}

	publicDir := filepath.Join(dir, "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"index.html":       "<h1>Home</h1>",
		"about.html":       "<h1>About</h1>",
		"admin.html":       "<h1>Dashboard</h1>",
		"admin-login.html": "<form></form>",
		".env":             "SECRET=1",
	} {
		if err := os.WriteFile(filepath.Join(publicDir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("pw-for-tests"))
	if err != nil {
		t.Fatal(err)
	}
	policy, err := admin.NewPolicy(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	gate := admin.NewGate(security.NewTestSessionTokens(), session.NewMemoryStore(), policy, false, log)

	repo := repository.NewSQLiteRepository(conn)
	aRepo := auditrepo.NewSQLiteRepository(conn)
	auditLogger := audit.NewLogger(aRepo, reqctx.ClientIP, log)
	dispatcher := notify.NewDispatcher(notify.Noop{Log: log}, 0, log, nil)
	t.Cleanup(func() { _ = dispatcher.Drain(context.Background()) })

	h := NewRouter(Deps{
		Intake:      intakehandler.New(intake.NewService(repo, dispatcher, intake.WithLogger(log)), log),
		Admin:       adminhandler.New(gate, repo, hasher, adminhandler.Credentials{Username: "admin", PasswordHash: hash}, auditLogger, publicDir, log),
		Gate:        gate,
		Audit:       audithandler.New(aRepo, log),
		AuditLogger: auditLogger,
		Health: healthhandler.New(map[string]healthhandler.Check{
			"database": conn.PingContext,
			"policy":   policy.HealthCheck,
		}, log),
		PublicDir: publicDir,
		Log:       log,
	})
	return &site{handler: h, auditRepo: aRepo}
}

func (s *site) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *site) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.do(req)
}

func (s *site) login(t *testing.T) *http.Cookie {
	t.Helper()
	body := url.Values{"username": {"admin"}, "password": {"pw-for-tests"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/admin-login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == admin.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestRouter_SubmitThenReadBack(t *testing.T) {
	s := newSite(t)

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"name":"Jane","email":"jane@x.com","message":"Hi"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := s.do(req); w.Code != http.StatusCreated {
		t.Fatalf("POST /contact status = %d: %s", w.Code, w.Body.String())
	}
	form := url.Values{"name": {"Sam"}, "email": {"sam@x.com"}, "phone": {"555"}, "project_type": {"Residential"}, "location": {"Durban"}}
	req = httptest.NewRequest(http.MethodPost, "/quotation", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := s.do(req); w.Code != http.StatusOK {
		t.Fatalf("POST /quotation status = %d: %s", w.Code, w.Body.String())
	}

	if w := s.get("/admin/data", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /admin/data = %d, want 401", w.Code)
	}

	cookie := s.login(t)
	w := s.get("/admin/data", cookie)
	var contacts []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &contacts); err != nil {
		t.Fatalf("decode contacts: %v (%s)", err, w.Body.String())
	}
	if len(contacts) != 1 || contacts[0]["name"] != "Jane" {
		t.Errorf("contacts = %v", contacts)
	}
	w = s.get("/admin/quotes", cookie)
	var quotes []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &quotes); err != nil {
		t.Fatalf("decode quotes: %v", err)
	}
	if len(quotes) != 1 || quotes[0]["location"] != "Durban" || quotes[0]["timeline"] != nil {
		t.Errorf("quotes = %v", quotes)
	}

	logs, err := s.auditRepo.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	actions := map[string]bool{}
	for _, l := range logs {
		actions[l.Action+" "+l.Resource] = true
	}
	for _, want := range []string{"login_success session", "list contact", "list quote"} {
		if !actions[want] {
			t.Errorf("audit log missing %q (have %v)", want, actions)
		}
	}
}

func TestRouter_AdminPageIsGated(t *testing.T) {
	s := newSite(t)
	if w := s.get("/admin", nil); w.Code != http.StatusFound || w.Header().Get("Location") != admin.LoginPage {
		t.Errorf("anonymous /admin: %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := s.get("/admin.html", nil); w.Code != http.StatusNotFound {
		t.Errorf("/admin.html = %d, want 404", w.Code)
	}
	cookie := s.login(t)
	if w := s.get("/admin", cookie); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Dashboard") {
		t.Errorf("/admin with session: %d %q", w.Code, w.Body.String())
	}
	if w := s.get("/logout", cookie); w.Code != http.StatusFound {
		t.Errorf("/logout = %d, want 302", w.Code)
	}
	if w := s.get("/admin/quotes", cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("after logout /admin/quotes = %d, want 401", w.Code)
	}
}

func TestRouter_StaticAndHealth(t *testing.T) {
	s := newSite(t)
	if w := s.get("/", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Home") {
		t.Errorf("/ = %d %q", w.Code, w.Body.String())
	}
	if w := s.get("/about", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "About") {
		t.Errorf("/about = %d %q", w.Code, w.Body.String())
	}
	if w := s.get("/.env", nil); w.Code != http.StatusNotFound {
		t.Errorf("/.env = %d, want 404", w.Code)
	}
	if w := s.get("/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("/missing = %d, want 404", w.Code)
	}
	if w := s.get("/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", w.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	s := newSite(t)
	req := httptest.NewRequest(http.MethodOptions, "/contact", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := s.do(req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
