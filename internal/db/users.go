package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// now is the clock used for every server-assigned timestamp.
var now = func() time.Time { return time.Now().UTC() }

const userColumns = `id, username, email, password_hash, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var isAdmin int
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PassHash, &isAdmin, &created); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

// CreateUser inserts u and sets its ID and CreatedAt. A duplicate username
// or email yields an error wrapping ErrConflict.
func (d *DB) CreateUser(ctx context.Context, u *User) error {
	if u.Username == "" || u.Email == "" || u.PassHash == "" {
		return errors.New("username, email, and password hash are required")
	}
	created := now()
	res, err := d.q.ExecContext(ctx, `
INSERT INTO users(username, email, password_hash, is_admin, created_at)
VALUES(?, ?, ?, ?, ?)
`, u.Username, u.Email, u.PassHash, boolToInt(u.IsAdmin), created.Unix())
	if err != nil {
		return fmt.Errorf("insert user: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// UserExists reports whether any user already holds username or email.
func (d *DB) UserExists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountUsers returns the number of registered users.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := d.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// GetUserByUsername looks up a user by exact username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	u, err := scanUser(d.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	return userResult(u, err)
}

// GetUserByID looks up a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	u, err := scanUser(d.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return userResult(u, err)
}

func userResult(u *User, err error) (*User, bool, error) {
	if err == nil {
		return u, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	return nil, false, err
}

// UpdateUsername renames a user in place. Uniqueness is only enforced by
// the users.username index.
func (d *DB) UpdateUsername(ctx context.Context, id int64, username string) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	if username == "" {
		return errors.New("username is required")
	}
	res, err := d.q.ExecContext(ctx, `UPDATE users SET username = ? WHERE id = ?`, username, id)
	if err != nil {
		return fmt.Errorf("update username: %w", classify(err))
	}
	return requireRow(res)
}

// SetUserPasswordHash replaces a user's password hash.
func (d *DB) SetUserPasswordHash(ctx context.Context, id int64, passHash string) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	if passHash == "" {
		return errors.New("password hash is required")
	}
	res, err := d.q.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
