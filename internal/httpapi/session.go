package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"traveldiary/internal/auth"
	"traveldiary/internal/db"
)

const sessionCookie = "td_session"

// DefaultSessionTTL applies when Sessions.TTL is zero.
const DefaultSessionTTL = 12 * time.Hour

// Sessions ties the session cookie to rows in the sessions table.
type Sessions struct {
	DB     *db.DB
	TTL    time.Duration
	Secure bool
	Logger *slog.Logger
}

func (m *Sessions) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultSessionTTL
	}
	return m.TTL
}

// Login creates a session for u and sets the cookie. Expired sessions are
// purged on the way.
func (m *Sessions) Login(w http.ResponseWriter, r *http.Request, u *db.User) error {
	ctx := r.Context()
	if n, err := m.DB.DeleteExpiredSessions(ctx, time.Now()); err != nil {
		m.Logger.Warn("purge expired sessions", "err", err)
	} else if n > 0 {
		m.Logger.Debug("purged expired sessions", "count", n)
	}

	tok, err := auth.NewSessionToken()
	if err != nil {
		return err
	}
	sess, err := m.DB.CreateSession(ctx, tok, u.ID, m.ttl())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.ttl().Seconds()),
	})
	return nil
}

// Logout deletes the caller's session row, if any, and clears the cookie.
func (m *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	if tok, ok := readSessionCookie(r); ok {
		if err := m.DB.DeleteSession(r.Context(), tok); err != nil {
			m.Logger.Warn("delete session", "err", err)
		}
	}
	m.clearCookie(w, r)
}

// Resolve returns the user behind the request's session cookie. Every
// failure, including a database error, yields nil.
func (m *Sessions) Resolve(ctx context.Context, r *http.Request) *db.User {
	tok, ok := readSessionCookie(r)
	if !ok {
		return nil
	}
	sess, ok, err := m.DB.GetSession(ctx, tok)
	if err != nil {
		m.Logger.Error("load session", "err", err)
		return nil
	}
	if !ok || sess.Expired(time.Now()) {
		return nil
	}
	u, ok, err := m.DB.GetUserByID(ctx, sess.UserID)
	if err != nil {
		m.Logger.Error("load session user", "err", err, "user_id", sess.UserID)
		return nil
	}
	if !ok {
		return nil
	}
	return u
}

func (m *Sessions) clearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func readSessionCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	if !auth.WellFormedSessionToken(c.Value) {
		return "", false
	}
	return c.Value, true
}
