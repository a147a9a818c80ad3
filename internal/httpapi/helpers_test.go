package httpapi

import (
	"context"
	"strconv"

	"traveldiary/internal/db"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// newUser inserts a user directly, skipping the slow password hash.
func newUser(ctx context.Context, d *db.DB, username string) (*db.User, error) {
	u := &db.User{Username: username, Email: username + "@example.com", PassHash: "argon2id$unused"}
	return u, d.CreateUser(ctx, u)
}
