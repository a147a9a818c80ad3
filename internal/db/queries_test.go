// Package db tests verify persistence behavior against a temp SQLite file.
package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func mustUser(t *testing.T, d *DB, username, email string) *User {
	t.Helper()
	u := &User{Username: username, Email: email, PassHash: "argon2id$placeholder"}
	if err := d.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

// TestMigrateIsIdempotent reopens a database without reapplying migrations.
func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(ctx, p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustUser(t, d, "alice", "alice@example.com")
	_ = d.Close()

	d, err = Open(ctx, p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	n, err := d.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 user after reopen, got %d", n)
	}
}

// TestUserUniqueness rejects duplicate usernames and emails.
func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	mustUser(t, d, "alice", "alice@example.com")

	for _, u := range []*User{
		{Username: "alice", Email: "other@example.com", PassHash: "h"},
		{Username: "bob", Email: "alice@example.com", PassHash: "h"},
	} {
		err := d.CreateUser(ctx, u)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for %+v, got %v", u, err)
		}
	}
	exists, err := d.UserExists(ctx, "nobody", "alice@example.com")
	if err != nil || !exists {
		t.Fatalf("UserExists by email: exists=%v err=%v", exists, err)
	}
	n, _ := d.CountUsers(ctx)
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}

// TestUserPasswordRoundTrip stores a real hash and verifies it after reload.
func TestUserPasswordRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := &User{Username: "carol", Email: "carol@example.com"}
	if err := u.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := d.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, ok, err := d.GetUserByUsername(ctx, "carol")
	if err != nil || !ok {
		t.Fatalf("GetUserByUsername: ok=%v err=%v", ok, err)
	}
	if got.IsAdmin {
		t.Fatalf("expected is_admin default false")
	}
	if !got.CheckPassword("s3cret") || got.CheckPassword("S3cret") {
		t.Fatalf("password check mismatch")
	}
}

// TestListPublicDiaryEntries covers visibility, case-insensitive search, and ordering.
func TestListPublicDiaryEntries(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := mustUser(t, d, "alice", "alice@example.com")

	paris := NewDiaryEntry(u.ID, "Paris Trip", "Croissants everywhere", "")
	if err := d.CreateDiaryEntry(ctx, paris); err != nil {
		t.Fatalf("CreateDiaryEntry: %v", err)
	}
	hidden := NewDiaryEntry(u.ID, "Paris Secret", "hidden", "")
	hidden.Public = false
	if err := d.CreateDiaryEntry(ctx, hidden); err != nil {
		t.Fatalf("CreateDiaryEntry: %v", err)
	}
	rome := NewDiaryEntry(u.ID, "Rome", "Visited the Colosseum 100% worth it", "rome.jpg")
	if err := d.CreateDiaryEntry(ctx, rome); err != nil {
		t.Fatalf("CreateDiaryEntry: %v", err)
	}

	all, err := d.ListPublicDiaryEntries(ctx, "")
	if err != nil {
		t.Fatalf("ListPublicDiaryEntries: %v", err)
	}
	if len(all) != 2 || all[0].ID != rome.ID || all[1].ID != paris.ID {
		t.Fatalf("unexpected public list: %+v", all)
	}
	if all[0].AuthorName != "alice" || all[0].PhotoFilename != "rome.jpg" {
		t.Fatalf("unexpected entry fields: %+v", all[0])
	}

	got, err := d.ListPublicDiaryEntries(ctx, "paris")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != paris.ID {
		t.Fatalf("expected only the public Paris entry, got %+v", got)
	}

	got, _ = d.ListPublicDiaryEntries(ctx, "COLOSSEUM")
	if len(got) != 1 || got[0].ID != rome.ID {
		t.Fatalf("description search failed: %+v", got)
	}

	// '%' is literal, not a wildcard.
	got, _ = d.ListPublicDiaryEntries(ctx, "0%")
	if len(got) != 1 || got[0].ID != rome.ID {
		t.Fatalf("literal percent search failed: %+v", got)
	}
	got, _ = d.ListPublicDiaryEntries(ctx, "%")
	if len(got) != 1 {
		t.Fatalf("expected '%%' to match only the literal percent, got %d", len(got))
	}

	ile := NewDiaryEntry(u.ID, "Île de Ré", "Cycling past the salt marshes of Ars", "")
	if err := d.CreateDiaryEntry(ctx, ile); err != nil {
		t.Fatalf("CreateDiaryEntry: %v", err)
	}
	for _, q := range []string{"Île", "île", "ÎLE", "DE RÉ", "Île de Ré"} {
		got, err := d.ListPublicDiaryEntries(ctx, q)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 1 || got[0].ID != ile.ID {
			t.Fatalf("search %q: expected the Île de Ré entry, got %+v", q, got)
		}
	}
}

// TestCommentsRequireContentAndEntry checks comment validation and FK mapping.
func TestCommentsRequireContentAndEntry(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := mustUser(t, d, "alice", "alice@example.com")
	e := NewDiaryEntry(u.ID, "t", "d", "")
	if err := d.CreateDiaryEntry(ctx, e); err != nil {
		t.Fatalf("CreateDiaryEntry: %v", err)
	}

	if err := d.CreateComment(ctx, &Comment{Content: "  ", UserID: u.ID, DiaryEntryID: e.ID}); err == nil {
		t.Fatalf("expected blank comment to be rejected")
	}
	err := d.CreateComment(ctx, &Comment{Content: "hi", UserID: u.ID, DiaryEntryID: e.ID + 100})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	for _, body := range []string{"first", "second"} {
		if err := d.CreateComment(ctx, &Comment{Content: body, UserID: u.ID, DiaryEntryID: e.ID}); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}
	cs, err := d.ListCommentsByEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListCommentsByEntry: %v", err)
	}
	if len(cs) != 2 || cs[0].Content != "first" || cs[1].AuthorName != "alice" {
		t.Fatalf("unexpected comments: %+v", cs)
	}
}

// TestIncidentCoordinates stores Pending status and keeps coordinates optional.
func TestIncidentCoordinates(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := mustUser(t, d, "alice", "alice@example.com")

	lat, lon := 48.85, 2.35
	located := &Incident{IncidentType: "theft", Location: "Paris", Latitude: &lat, Longitude: &lon, UserID: u.ID, Status: IncidentApproved}
	if err := d.CreateIncident(ctx, located); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	halfLocated := &Incident{IncidentType: "flood", Location: "Nowhere", Latitude: &lat, UserID: u.ID}
	if err := d.CreateIncident(ctx, halfLocated); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	got, err := d.GetIncident(ctx, located.ID)
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if got.Status != IncidentPending {
		t.Fatalf("expected Pending status, got %s", got.Status)
	}
	if !got.HasCoordinates() || *got.Latitude != lat || *got.Longitude != lon {
		t.Fatalf("coordinates not stored: %+v", got)
	}

	got, err = d.GetIncident(ctx, halfLocated.ID)
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if got.Latitude != nil || got.Longitude != nil {
		t.Fatalf("expected unset coordinates, got %v %v", got.Latitude, got.Longitude)
	}

	if _, err := d.GetIncident(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := d.ListIncidentsByUser(ctx, u.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListIncidentsByUser: %d %v", len(list), err)
	}
}

// TestUpdateProfileUpsertsSinglePreference keeps one preference row per user.
func TestUpdateProfileUpsertsSinglePreference(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := mustUser(t, d, "alice", "alice@example.com")

	if err := d.UpdateProfile(ctx, u.ID, "alice2", true); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := d.UpdateProfile(ctx, u.ID, "alice3", false); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	var n int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_preferences WHERE user_id = ?`, u.ID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 preference row, got %d", n)
	}
	p, ok, err := d.GetAlertPreference(ctx, u.ID)
	if err != nil || !ok || p.EmailAlerts {
		t.Fatalf("unexpected preference: %+v ok=%v err=%v", p, ok, err)
	}
	got, _, _ := d.GetUserByID(ctx, u.ID)
	if got.Username != "alice3" {
		t.Fatalf("expected renamed user, got %s", got.Username)
	}
}

// TestUpdateProfileRollsBack leaves no preference row when the rename fails.
func TestUpdateProfileRollsBack(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	alice := mustUser(t, d, "alice", "alice@example.com")
	mustUser(t, d, "bob", "bob@example.com")

	err := d.UpdateProfile(ctx, alice.ID, "bob", true)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, ok, _ := d.GetAlertPreference(ctx, alice.ID); ok {
		t.Fatalf("expected preference insert to be rolled back")
	}
}

// TestSessions covers create, lookup, expiry, and deletion.
func TestSessions(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	u := mustUser(t, d, "alice", "alice@example.com")

	s, err := d.CreateSession(ctx, "tok", u.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	got, ok, err := d.GetSession(ctx, "tok")
	if err != nil || !ok {
		t.Fatalf("GetSession: ok=%v err=%v", ok, err)
	}
	if got.UserID != u.ID || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Expired(time.Now()) || !got.Expired(time.Now().Add(2*time.Hour)) {
		t.Fatalf("unexpected expiry evaluation")
	}

	n, err := d.DeleteExpiredSessions(ctx, time.Now().Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredSessions: n=%d err=%v", n, err)
	}
	if _, ok, _ := d.GetSession(ctx, "tok"); ok {
		t.Fatalf("expected session to be purged")
	}
}

func TestClassifyAndIsBusy(t *testing.T) {
	if got := classify(errors.New("constraint failed: UNIQUE constraint failed: users.email")); !errors.Is(got, ErrConflict) {
		t.Fatalf("unique: %v", got)
	}
	if got := classify(errors.New("FOREIGN KEY constraint failed")); !errors.Is(got, ErrInvalidReference) {
		t.Fatalf("fk: %v", got)
	}
	if classify(nil) != nil {
		t.Fatal("classify(nil) should be nil")
	}
	if !IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) || IsBusy(errors.New("no such table")) || IsBusy(nil) {
		t.Fatal("IsBusy misclassified")
	}
}
