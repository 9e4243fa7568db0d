package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State is the lifecycle position of a browser session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	// StatePasswordRecovery is entered through a password reset link. Only
	// setting a new password is allowed from here.
	StatePasswordRecovery
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StatePasswordRecovery:
		return "password_recovery"
	}
	return "unauthenticated"
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// User identifies the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the resolved state of a request's access token.
type Session struct {
	State     State     `json:"state"`
	User      User      `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Anonymous is the session of a request without a usable token.
var Anonymous = Session{State: StateUnauthenticated}

// Resolver turns a bearer token into a Session.
type Resolver interface {
	Resolve(token string) Session
}

const recoveryMethod = "recovery"

type amrEntry struct {
	Method    string `json:"method"`
	Timestamp int64  `json:"timestamp"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	AMR   []amrEntry `json:"amr"`
}

// TokenResolver verifies HS256 access tokens signed with the project secret.
type TokenResolver struct {
	secret []byte
	now    func() time.Time
}

// NewTokenResolver builds a resolver for the given signing secret.
func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), now: time.Now}
}

// Resolve returns Anonymous for missing, malformed or expired tokens.
func (r *TokenResolver) Resolve(token string) Session {
	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous
	}

	claims := new(accessClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return Anonymous
	}

	session := Session{
		State: StateAuthenticated,
		User:  User{ID: claims.Subject, Email: claims.Email},
		Token: token,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	for _, entry := range claims.AMR {
		if entry.Method == recoveryMethod {
			session.State = StatePasswordRecovery
			break
		}
	}
	return session
}

// StaticResolver signs every request in as one fixed user. Used when
// authentication is disabled for local demos.
type StaticResolver struct {
	Email string
}

func (r StaticResolver) Resolve(string) Session {
	return Session{State: StateAuthenticated, User: User{ID: r.Email, Email: r.Email}}
}

// ErrWrongState is returned when an action is not allowed in the session's state.
var ErrWrongState = errors.New("action not allowed in the current session state")
