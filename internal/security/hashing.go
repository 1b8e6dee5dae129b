package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoPasswordHash is returned by Verify when no admin password hash is configured.
var ErrNoPasswordHash = errors.New("admin password hash is not configured")

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password for ADMIN_PASSWORD_HASH.
func (h *Hasher) Hash(password []byte) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash in constant time. Returns nil if
// they match.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Verify reports whether password matches hash. An empty hash never matches and
// returns ErrNoPasswordHash so callers can log the misconfiguration.
func (h *Hasher) Verify(hash string, password []byte) (bool, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false, ErrNoPasswordHash
	}
	err := h.Compare(hash, password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
