package rest

import (
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the bearer token attached to backend requests.
// An empty string means "no credentials"; the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// ClearableTokenSource is a TokenSource whose stored credentials can be
// dropped. The client clears the source after a 401 so a stale token is never
// re-sent.
type ClearableTokenSource interface {
	TokenSource
	Clear()
}

// StaticTokenSource holds a token in memory.
type StaticTokenSource struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenSource creates a StaticTokenSource holding token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token implements TokenSource.
func (s *StaticTokenSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the stored token, e.g. after a fresh login.
func (s *StaticTokenSource) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear implements ClearableTokenSource.
func (s *StaticTokenSource) Clear() {
	s.SetToken("")
}

// EnvTokenSource reads the token from an environment variable on every call.
// Used for server-side rendering contexts where credentials come from the
// process environment rather than user storage.
type EnvTokenSource struct {
	Var string
}

// Token implements TokenSource.
func (s EnvTokenSource) Token() string {
	return os.Getenv(s.Var)
}

// Expired reports whether token is a JWT whose exp claim lies before now.
// The signature is not verified; the backend is the authority on token
// validity, this is only an opportunistic local check. Tokens that do not
// parse or carry no exp claim are not considered expired.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
