package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateIncident inserts i with status Pending, assigning ID and CreatedAt.
// Coordinates are stored only when both are present.
func (d *DB) CreateIncident(ctx context.Context, i *Incident) error {
	if i.UserID <= 0 {
		return errors.New("invalid user id")
	}
	if i.IncidentType == "" || i.Location == "" {
		return errors.New("incident type and location are required")
	}
	var lat, lon sql.NullFloat64
	if i.HasCoordinates() {
		lat = sql.NullFloat64{Float64: *i.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: *i.Longitude, Valid: true}
	} else {
		i.Latitude, i.Longitude = nil, nil
	}
	i.Status = IncidentPending
	created := now()
	res, err := d.q.ExecContext(ctx, `
INSERT INTO incidents(incident_type, location, latitude, longitude, photo_filename, description, status, risk_category, created_at, user_id)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, i.IncidentType, i.Location, lat, lon, nullString(i.PhotoFilename), nullString(i.Description),
		string(i.Status), nullString(i.RiskCategory), created.Unix(), i.UserID)
	if err != nil {
		return fmt.Errorf("insert incident: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = id
	i.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

const incidentColumns = `id, incident_type, location, latitude, longitude, photo_filename, description, status, risk_category, created_at, user_id`

func scanIncident(row interface{ Scan(...any) error }) (*Incident, error) {
	var i Incident
	var lat, lon sql.NullFloat64
	var photo, desc, risk sql.NullString
	var status string
	var created int64
	if err := row.Scan(&i.ID, &i.IncidentType, &i.Location, &lat, &lon, &photo, &desc, &status, &risk, &created, &i.UserID); err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		i.Latitude, i.Longitude = &lat.Float64, &lon.Float64
	}
	i.PhotoFilename = photo.String
	i.Description = desc.String
	i.RiskCategory = risk.String
	i.Status = IncidentStatus(status)
	i.CreatedAt = time.Unix(created, 0).UTC()
	return &i, nil
}

// GetIncident looks up an incident by ID.
func (d *DB) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	i, err := scanIncident(d.q.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return i, err
}

// ListIncidentsByUser returns a reporter's incidents, newest first.
func (d *DB) ListIncidentsByUser(ctx context.Context, userID int64) ([]Incident, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+incidentColumns+`
FROM incidents WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}
