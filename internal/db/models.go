// Package db defines the persistence models and queries for the travel diary.
package db

import (
	"time"

	"traveldiary/internal/auth"
)

// User is a registered account. PassHash is an argon2id PHC string.
type User struct {
	ID        int64
	Username  string
	Email     string
	PassHash  string
	IsAdmin   bool
	CreatedAt time.Time
}

// SetPassword replaces the stored hash with a fresh salted hash of plain.
func (u *User) SetPassword(plain string) error {
	h, err := auth.HashPassword(plain, auth.DefaultParams())
	if err != nil {
		return err
	}
	u.PassHash = h
	return nil
}

// CheckPassword reports whether plain matches the stored hash. A corrupt
// hash never matches.
func (u *User) CheckPassword(plain string) bool {
	ok, err := auth.VerifyPassword(plain, u.PassHash)
	return err == nil && ok
}

// AlertPreference holds a user's email-alert opt-in. At most one per user.
type AlertPreference struct {
	ID          int64
	EmailAlerts bool
	UserID      int64
}

// DiaryEntry is a travel diary post. AuthorName is filled by list queries.
type DiaryEntry struct {
	ID            int64
	Title         string
	Description   string
	PhotoFilename string
	Public        bool
	CreatedAt     time.Time
	UserID        int64

	AuthorName string
	Comments   []Comment
}

// Comment is a reply on a diary entry. AuthorName is filled by list queries.
type Comment struct {
	ID           int64
	Content      string
	CreatedAt    time.Time
	UserID       int64
	DiaryEntryID int64

	AuthorName string
}

// IncidentStatus is the review state of an incident report.
type IncidentStatus string

const (
	IncidentPending  IncidentStatus = "Pending"
	IncidentApproved IncidentStatus = "Approved"
	IncidentRejected IncidentStatus = "Rejected"
)

// Incident is a geolocated incident report. Latitude and Longitude are nil
// when the location could not be geocoded.
type Incident struct {
	ID            int64
	IncidentType  string
	Location      string
	Latitude      *float64
	Longitude     *float64
	PhotoFilename string
	Description   string
	Status        IncidentStatus
	RiskCategory  string
	CreatedAt     time.Time
	UserID        int64
}

// HasCoordinates reports whether geocoding succeeded for this incident.
func (i Incident) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// Session maps an opaque cookie token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
