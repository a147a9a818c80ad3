package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetAlertPreference returns the user's alert preference, if one exists.
func (d *DB) GetAlertPreference(ctx context.Context, userID int64) (*AlertPreference, bool, error) {
	var p AlertPreference
	var alerts int
	err := d.q.QueryRowContext(ctx,
		`SELECT id, email_alerts, user_id FROM alert_preferences WHERE user_id = ?`, userID).
		Scan(&p.ID, &alerts, &p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p.EmailAlerts = alerts != 0
	return &p, true, nil
}

// UpsertAlertPreference creates the user's preference row or updates its flag.
func (d *DB) UpsertAlertPreference(ctx context.Context, userID int64, emailAlerts bool) error {
	if userID <= 0 {
		return errors.New("invalid user id")
	}
	_, err := d.q.ExecContext(ctx, `
INSERT INTO alert_preferences(email_alerts, user_id) VALUES(?, ?)
ON CONFLICT(user_id) DO UPDATE SET email_alerts = excluded.email_alerts
`, boolToInt(emailAlerts), userID)
	if err != nil {
		return fmt.Errorf("upsert alert preference: %w", classify(err))
	}
	return nil
}

// UpdateProfile renames the user and upserts their alert preference as one unit.
func (d *DB) UpdateProfile(ctx context.Context, userID int64, username string, emailAlerts bool) error {
	return d.WithTx(ctx, func(tx *DB) error {
		if err := tx.UpdateUsername(ctx, userID, username); err != nil {
			return err
		}
		return tx.UpsertAlertPreference(ctx, userID, emailAlerts)
	})
}
