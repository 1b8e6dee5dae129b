// Package admin gates the admin pages and read endpoints behind a signed session cookie.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/platform/httpx"
	"codebrick-site/backend/internal/security"
	"codebrick-site/backend/internal/session"
)

// CookieName is the session cookie set on login.
const CookieName = "codebrick_session"

// LoginPage is where unauthenticated page requests are sent.
const LoginPage = "/admin-login.html"

type ctxKey struct{}

// Gate decides whether a request carries an authorized admin session.
type Gate struct {
	tokens  *security.SessionTokens
	revoked session.RevocationStore
	policy  *Policy
	secure  bool
	log     logrus.FieldLogger
}

// NewGate returns a Gate. secure sets the Secure flag on cookies (production).
func NewGate(tokens *security.SessionTokens, revoked session.RevocationStore, policy *Policy, secure bool, log logrus.FieldLogger) *Gate {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Gate{tokens: tokens, revoked: revoked, policy: policy, secure: secure, log: log}
}

// Authorized reports whether r carries a valid, unrevoked session that the policy allows.
func (g *Gate) Authorized(r *http.Request) (security.Session, bool) {
	ctx := r.Context()
	in := Input{Method: r.Method, Path: r.URL.Path}
	var s security.Session
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if parsed, err := g.tokens.Validate(c.Value); err == nil && !g.revoked.IsRevoked(ctx, parsed.ID) {
			s = parsed
			in.Authenticated = true
			in.Admin = parsed.Admin
			in.Subject = parsed.Subject
		}
	}
	allowed, err := g.policy.Allow(ctx, in)
	if err != nil {
		g.log.WithError(err).Error("admin: policy evaluation failed; denying")
		return security.Session{}, false
	}
	if !allowed {
		return security.Session{}, false
	}
	return s, true
}

// RequireAPI rejects unauthorized requests with 401 JSON.
func (g *Gate) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := g.Authorized(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequirePage redirects unauthorized requests to the login page.
func (g *Gate) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := g.Authorized(r)
		if !ok {
			http.Redirect(w, r, LoginPage, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// StartSession issues a session for subject and sets the cookie.
func (g *Gate) StartSession(w http.ResponseWriter, subject string) (security.Session, error) {
	token, s, err := g.tokens.Issue(subject)
	if err != nil {
		return security.Session{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// EndSession revokes s and clears the cookie.
func (g *Gate) EndSession(ctx context.Context, w http.ResponseWriter, s security.Session) {
	g.revoked.Revoke(ctx, s.ID, s.ExpiresAt)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s security.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFrom returns the session stored by the gate middleware.
func SessionFrom(ctx context.Context) (security.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(security.Session)
	return s, ok
}
