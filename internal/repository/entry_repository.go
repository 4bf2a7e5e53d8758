package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/smart-cafe/internal/model"
)

const entryColumns = "id, user_id, title, content, mood, image_url, created_at, updated_at"

// EntryRepo stores diary entries.  Every query is scoped to the owner.
type EntryRepo struct{ DB *sql.DB }

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{DB: db} }

// Create inserts e and fills its ID.  An empty mood becomes DefaultMood.
func (r *EntryRepo) Create(ctx context.Context, e *model.Entry) error {
	if e.Mood == "" {
		e.Mood = model.DefaultMood
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO entries (user_id, title, content, mood, image_url) VALUES (?, ?, ?, ?, ?)",
		e.UserID, e.Title, e.Content, e.Mood, e.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByUser returns the owner's entries, newest first.
func (r *EntryRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Entry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns an entry of userID.  Entries of other users are reported as
// ErrNotFound.
func (r *EntryRepo) Get(ctx context.Context, id, userID uint64) (*model.Entry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Update overwrites title, content, mood and image of an owned entry.
func (r *EntryRepo) Update(ctx context.Context, e *model.Entry) error {
	if e.Mood == "" {
		e.Mood = model.DefaultMood
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE entries SET title = ?, content = ?, mood = ?, image_url = ? WHERE id = ? AND user_id = ?",
		e.Title, e.Content, e.Mood, e.ImageURL, e.ID, e.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.Get(ctx, e.ID, e.UserID)
		return err
	}
	return nil
}

// Delete removes an owned entry.
func (r *EntryRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	e := new(model.Entry)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Mood, &e.ImageURL, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}
