package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/smart-cafe/internal/model"
)

const cafeColumns = "id, name, description, location, image, is_active, created_at"

// CafeRepo encapsulates all queries related to cafes.
type CafeRepo struct{ DB *sql.DB }

func NewCafeRepo(db *sql.DB) *CafeRepo { return &CafeRepo{DB: db} }

// Create inserts c and fills its ID and CreatedAt.
func (r *CafeRepo) Create(ctx context.Context, c *model.Cafe) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO cafes (name, description, location, image, is_active) VALUES (?, ?, ?, ?, ?)",
		c.Name, c.Description, c.Location, c.Image, c.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// GetByID fetches a cafe.  It returns ErrNotFound if there is no such row.
func (r *CafeRepo) GetByID(ctx context.Context, id uint64) (*model.Cafe, error) {
	c, err := scanCafe(r.DB.QueryRowContext(ctx, "SELECT "+cafeColumns+" FROM cafes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListAll returns every cafe, newest first.
func (r *CafeRepo) ListAll(ctx context.Context) ([]*model.Cafe, error) {
	return r.list(ctx, "SELECT "+cafeColumns+" FROM cafes ORDER BY created_at DESC, id DESC")
}

// ListActive returns the cafes shown on the public menu.
func (r *CafeRepo) ListActive(ctx context.Context) ([]*model.Cafe, error) {
	return r.list(ctx, "SELECT "+cafeColumns+" FROM cafes WHERE is_active = 1 ORDER BY name")
}

// Update overwrites the editable columns of c.
func (r *CafeRepo) Update(ctx context.Context, c *model.Cafe) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cafes SET name = ?, description = ?, location = ?, image = ?, is_active = ? WHERE id = ?",
		c.Name, c.Description, c.Location, c.Image, c.IsActive, c.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 rows for an unchanged row as well.
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a cafe and, through the foreign key, its menu.
func (r *CafeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cafes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Summaries lists every cafe with the size of its menu.
func (r *CafeRepo) Summaries(ctx context.Context) ([]model.CafeSummary, error) {
	const q = `SELECT c.id, c.name, c.description, c.location, c.image, c.is_active, c.created_at,
	                  (SELECT COUNT(*) FROM menu_items m WHERE m.cafe_id = c.id) AS menu_count
	           FROM cafes c ORDER BY c.name`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CafeSummary
	for rows.Next() {
		var s model.CafeSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Location, &s.Image, &s.IsActive, &s.CreatedAt, &s.MenuItems); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CafeRepo) list(ctx context.Context, q string, args ...any) ([]*model.Cafe, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Cafe
	for rows.Next() {
		c, err := scanCafe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCafe(row rowScanner) (*model.Cafe, error) {
	c := new(model.Cafe)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.Image, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
