package db

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict wraps UNIQUE constraint failures.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference wraps FOREIGN KEY constraint failures.
	ErrInvalidReference = errors.New("invalid reference")
)

// classify maps SQLite constraint failures onto the package sentinels.
// modernc/sqlite surfaces them as strings carrying the SQLite message.
func classify(err error) error {
	if err == nil {
		return nil
	}
	s := err.Error()
	switch {
	case strings.Contains(s, "UNIQUE constraint failed"):
		return errors.Join(ErrConflict, err)
	case strings.Contains(s, "FOREIGN KEY constraint failed"):
		return errors.Join(ErrInvalidReference, err)
	}
	return err
}

// IsBusy identifies transient SQLite lock errors.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") || strings.Contains(s, "sqlite_busy")
}
