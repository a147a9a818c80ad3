package setup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"traveldiary/internal/db"
)

type ResetPasswordOptions struct {
	DBPath      string
	Username    string
	Password    string
	PasswordEnv bool
}

// ResetPassword replaces a user's password directly in the database. It
// does not need the server to be running.
func ResetPassword(ctx context.Context, opt ResetPasswordOptions) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.Username == "" {
		return errors.New("username is required")
	}
	if _, err := os.Stat(opt.DBPath); err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()

	u, ok, err := d.GetUserByUsername(ctx, opt.Username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %q: %w", opt.Username, db.ErrNotFound)
	}

	pass, err := resolvePassword("New password for "+u.Username, opt.Password, opt.PasswordEnv)
	if err != nil {
		return err
	}
	if err := u.SetPassword(pass); err != nil {
		return err
	}
	if err := d.SetUserPasswordHash(ctx, u.ID, u.PassHash); err != nil {
		return err
	}
	// Existing sessions keep working; the password only gates new logins.
	return nil
}
