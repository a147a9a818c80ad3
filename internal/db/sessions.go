package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateSession stores a token for userID valid for ttl.
func (d *DB) CreateSession(ctx context.Context, token string, userID int64, ttl time.Duration) (*Session, error) {
	if token == "" || userID <= 0 || ttl <= 0 {
		return nil, errors.New("invalid session")
	}
	created := now().Truncate(time.Second)
	s := &Session{Token: token, UserID: userID, CreatedAt: created, ExpiresAt: created.Add(ttl)}
	_, err := d.q.ExecContext(ctx, `
INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?, ?, ?, ?)
`, s.Token, s.UserID, s.CreatedAt.Unix(), s.ExpiresAt.Unix())
	if err != nil {
		return nil, classify(err)
	}
	return s, nil
}

// GetSession looks up a session by token. Expired sessions are returned
// as-is; callers check Expired.
func (d *DB) GetSession(ctx context.Context, token string) (*Session, bool, error) {
	var s Session
	var created, expires int64
	err := d.q.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return &s, true, nil
}

// DeleteSession removes a session by token.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	_, err := d.q.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// DeleteExpiredSessions purges sessions that expired at or before t.
func (d *DB) DeleteExpiredSessions(ctx context.Context, t time.Time) (int64, error) {
	res, err := d.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, t.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
