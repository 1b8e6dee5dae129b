package security

import "time"

// testSecret is for unit tests only. Do not use in production.
const testSecret = "test-session-secret-0123456789abcdef"

// NewTestSessionTokens returns SessionTokens using a fixed test secret.
// For unit tests only. Callers must not use in production.
func NewTestSessionTokens() *SessionTokens {
	p, err := NewSessionTokens([]byte(testSecret), "test-issuer", "test-audience", time.Hour)
	if err != nil {
		panic(err)
	}
	return p
}
