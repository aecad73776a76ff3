package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	h "eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/domain"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "sid"

type contextKey string

const (
	userKey      contextKey = "user"
	sessionIDKey contextKey = "sessionID"
)

// WithUser returns a context carrying the authenticated user and session id.
func WithUser(ctx context.Context, user *domain.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// CurrentUser returns the authenticated user from the context, if present.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}

// SessionIDFromContext returns the id of the session that authenticated the request.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Domain string
	Secure bool
}

// SessionAuth resolves the session cookie to a user on every request.
type SessionAuth struct {
	Auth   domain.AuthService
	Codec  domain.SessionTokenCodec
	Cookie CookieConfig
	Logger *slog.Logger
}

func NewSessionAuth(auth domain.AuthService, codec domain.SessionTokenCodec, cookie CookieConfig, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{Auth: auth, Codec: codec, Cookie: cookie, Logger: logger}
}

// RequireSession responds 401 unless the request carries a live session. On success the
// cookie is re-issued so its lifetime follows the sliding session expiry.
func (a *SessionAuth) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return a.requireSession(next, true)
}

// RequireSessionNoRefresh is RequireSession without re-issuing the cookie, for handlers
// that write the session cookie themselves.
func (a *SessionAuth) RequireSessionNoRefresh(next http.HandlerFunc) http.HandlerFunc {
	return a.requireSession(next, false)
}

func (a *SessionAuth) requireSession(next http.HandlerFunc, refresh bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, sessionID, err := a.resolve(r)
		if err != nil {
			if errors.Is(err, domain.ErrNoSession) {
				a.ClearSessionCookie(w)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
				return
			}
			a.Logger.ErrorContext(r.Context(), "session lookup failed", "path", r.URL.Path, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
			return
		}
		if refresh {
			if err := a.SetSessionCookie(w, sessionID); err != nil {
				a.Logger.ErrorContext(r.Context(), "failed to refresh session cookie", "err", err)
			}
		}
		next(w, r.WithContext(WithUser(r.Context(), user, sessionID)))
	}
}

// OptionalSession attaches the user when a live session is present and otherwise lets the
// request through anonymously.
func (a *SessionAuth) OptionalSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, sessionID, err := a.resolve(r)
		if err != nil {
			if !errors.Is(err, domain.ErrNoSession) {
				a.Logger.WarnContext(r.Context(), "session lookup failed", "path", r.URL.Path, "err", err)
			}
			next(w, r)
			return
		}
		if err := a.SetSessionCookie(w, sessionID); err != nil {
			a.Logger.ErrorContext(r.Context(), "failed to refresh session cookie", "err", err)
		}
		next(w, r.WithContext(WithUser(r.Context(), user, sessionID)))
	}
}

func (a *SessionAuth) resolve(r *http.Request) (*domain.User, string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, "", domain.ErrNoSession
	}
	sessionID, err := a.Codec.Decode(cookie.Value)
	if err != nil {
		return nil, "", domain.ErrNoSession
	}
	user, session, err := a.Auth.Authenticate(r.Context(), sessionID)
	if err != nil {
		return nil, "", err
	}
	return user, session.ID, nil
}

// SetSessionCookie writes the signed session cookie with a full session lifetime.
func (a *SessionAuth) SetSessionCookie(w http.ResponseWriter, sessionID string) error {
	token, err := a.Codec.Encode(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, a.cookie(token, int(domain.SessionTTL/time.Second)))
	return nil
}

// ClearSessionCookie tells the browser to drop the session cookie.
func (a *SessionAuth) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, a.cookie("", -1))
}

func (a *SessionAuth) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   a.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}
