package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret is returned when the signing secret is shorter than MinSecretBytes.
	ErrWeakSecret = errors.New("session secret must be at least 32 bytes")
)

// MinSecretBytes is the minimum HMAC secret length.
const MinSecretBytes = 32

// SessionClaims holds JWT claims for an admin session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Admin bool `json:"adm"`
}

// Session is a validated session token.
type Session struct {
	ID        string // jti; used for revocation
	Subject   string
	Admin     bool
	ExpiresAt time.Time
}

// SessionTokens issues and validates HS256 session tokens.
type SessionTokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionTokens returns a SessionTokens signing with secret. issuer and audience are set
// on issued tokens and required on validation.
func NewSessionTokens(secret []byte, issuer, audience string, ttl time.Duration) (*SessionTokens, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	return &SessionTokens{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (p *SessionTokens) TTL() time.Duration { return p.ttl }

// Issue issues a session token for subject.
func (p *SessionTokens) Issue(subject string) (token string, s Session, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", Session{}, err
	}
	now := p.now().UTC()
	expiresAt := now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Admin: true,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", Session{}, err
	}
	return token, Session{ID: jti, Subject: subject, Admin: true, ExpiresAt: expiresAt}, nil
}

// Validate parses and validates tokenString (signature, exp, iss, aud).
func (p *SessionTokens) Validate(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Admin:     claims.Admin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomSecret returns n random bytes, for development when no secret is configured.
func RandomSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
