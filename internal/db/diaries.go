package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateDiaryEntry inserts e, assigning ID and CreatedAt. Public is taken
// from e; callers building a new entry should start from NewDiaryEntry.
func (d *DB) CreateDiaryEntry(ctx context.Context, e *DiaryEntry) error {
	if e.UserID <= 0 {
		return errors.New("invalid user id")
	}
	if e.Title == "" || e.Description == "" {
		return errors.New("title and description are required")
	}
	created := now()
	res, err := d.q.ExecContext(ctx, `
INSERT INTO diary_entries(title, description, photo_filename, public, created_at, user_id)
VALUES(?, ?, ?, ?, ?, ?)
`, e.Title, e.Description, nullString(e.PhotoFilename), boolToInt(e.Public), created.Unix(), e.UserID)
	if err != nil {
		return fmt.Errorf("insert diary entry: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	e.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// NewDiaryEntry returns an entry with the default visibility (public).
func NewDiaryEntry(userID int64, title, description, photo string) *DiaryEntry {
	return &DiaryEntry{
		UserID:        userID,
		Title:         title,
		Description:   description,
		PhotoFilename: photo,
		Public:        true,
	}
}

const diaryColumns = `e.id, e.title, e.description, e.photo_filename, e.public, e.created_at, e.user_id, u.username`

func scanDiaryEntries(rows *sql.Rows) ([]DiaryEntry, error) {
	defer rows.Close()
	var out []DiaryEntry
	for rows.Next() {
		var e DiaryEntry
		var photo sql.NullString
		var public int
		var created int64
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &photo, &public, &created, &e.UserID, &e.AuthorName); err != nil {
			return nil, err
		}
		e.PhotoFilename = photo.String
		e.Public = public != 0
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// likeEscaper makes user input literal inside a LIKE pattern using '\' as escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListPublicDiaryEntries returns public entries newest first. A non-blank
// query keeps only entries whose title or description contains it,
// ignoring case.
func (d *DB) ListPublicDiaryEntries(ctx context.Context, query string) ([]DiaryEntry, error) {
	q := `SELECT ` + diaryColumns + `
FROM diary_entries e JOIN users u ON u.id = e.user_id
WHERE e.public = 1`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		q += ` AND (` + foldFunc + `(e.title) LIKE ` + foldFunc + `(?) ESCAPE '\'
	OR ` + foldFunc + `(e.description) LIKE ` + foldFunc + `(?) ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	q += ` ORDER BY e.created_at DESC, e.id DESC`

	rows, err := d.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanDiaryEntries(rows)
}

// ListDiaryEntriesByUser returns every entry authored by userID, newest first.
func (d *DB) ListDiaryEntriesByUser(ctx context.Context, userID int64) ([]DiaryEntry, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+diaryColumns+`
FROM diary_entries e JOIN users u ON u.id = e.user_id
WHERE e.user_id = ?
ORDER BY e.created_at DESC, e.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanDiaryEntries(rows)
}

// CreateComment inserts c. Content must be non-blank. The target entry is
// not checked for visibility; a missing entry fails with ErrInvalidReference.
func (d *DB) CreateComment(ctx context.Context, c *Comment) error {
	if c.UserID <= 0 || c.DiaryEntryID <= 0 {
		return errors.New("invalid comment reference")
	}
	if strings.TrimSpace(c.Content) == "" {
		return errors.New("comment content is required")
	}
	created := now()
	res, err := d.q.ExecContext(ctx, `
INSERT INTO comments(content, created_at, user_id, diary_entry_id) VALUES(?, ?, ?, ?)
`, c.Content, created.Unix(), c.UserID, c.DiaryEntryID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// ListCommentsByEntry returns comments for one entry, oldest first.
func (d *DB) ListCommentsByEntry(ctx context.Context, entryID int64) ([]Comment, error) {
	byEntry, err := d.ListCommentsForEntries(ctx, []int64{entryID})
	if err != nil {
		return nil, err
	}
	return byEntry[entryID], nil
}

// ListCommentsForEntries groups comments by diary entry ID, oldest first.
func (d *DB) ListCommentsForEntries(ctx context.Context, entryIDs []int64) (map[int64][]Comment, error) {
	out := make(map[int64][]Comment, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}
	rows, err := d.q.QueryContext(ctx, `
SELECT c.id, c.content, c.created_at, c.user_id, c.diary_entry_id, u.username
FROM comments c JOIN users u ON u.id = c.user_id
WHERE c.diary_entry_id IN (`+placeholders+`)
ORDER BY c.created_at ASC, c.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Comment
		var created int64
		if err := rows.Scan(&c.ID, &c.Content, &created, &c.UserID, &c.DiaryEntryID, &c.AuthorName); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		out[c.DiaryEntryID] = append(out[c.DiaryEntryID], c)
	}
	return out, rows.Err()
}
