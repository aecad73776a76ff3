package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SessionTTL is the rolling lifetime of a login session. Every authenticated request pushes
// the expiry out by this amount.
const SessionTTL = 7 * 24 * time.Hour

// Authentication errors. ErrNoSuchUser wraps ErrBadCredentials so callers that only care
// about a failed login can match on ErrBadCredentials alone.
var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrNoSuchUser     = fmt.Errorf("%w: no user with this email", ErrBadCredentials)
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrNoSession)
)

// Session is server-held authentication state referenced by the client cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionTokenCodec turns a session id into the opaque cookie value and back.
type SessionTokenCodec interface {
	Encode(sessionID string) (string, error)
	Decode(token string) (sessionID string, err error)
}

// AuthService defines registration, login and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*Session, *User, error)
	Authenticate(ctx context.Context, sessionID string) (*User, *Session, error)
	Logout(ctx context.Context, sessionID string) error
}
