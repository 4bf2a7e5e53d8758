package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/model"
)

const menuColumns = "id, cafe_id, name, description, category, price_cents, image, is_available, created_at"

// MenuRepo encapsulates queries over menu_items.
type MenuRepo struct{ DB *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{DB: db} }

// ListByCafe returns the menu of a cafe ordered by category then name.  With
// onlyAvailable set, items switched off by the admin are skipped.
func (r *MenuRepo) ListByCafe(ctx context.Context, cafeID uint64, onlyAvailable bool) ([]*model.MenuItem, error) {
	q := "SELECT " + menuColumns + " FROM menu_items WHERE cafe_id = ?"
	if onlyAvailable {
		q += " AND is_available = 1"
	}
	q += " ORDER BY category, name"
	return r.list(ctx, q, cafeID)
}

// GetByID fetches one item or ErrNotFound.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	m, err := scanMenuItem(r.DB.QueryRowContext(ctx, "SELECT "+menuColumns+" FROM menu_items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// GetByIDs returns the items with the given ids keyed by id.  Missing ids are
// simply absent from the map.
func (r *MenuRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.MenuItem, error) {
	out := make(map[uint64]*model.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + menuColumns + " FROM menu_items WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	items, err := r.list(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		out[m.ID] = m
	}
	return out, nil
}

// Create inserts m and fills its ID.
func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO menu_items (cafe_id, name, description, category, price_cents, image, is_available) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.CafeID, m.Name, m.Description, m.Category, int64(m.Price), m.Image, m.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update overwrites the editable columns of m.
func (r *MenuRepo) Update(ctx context.Context, m *model.MenuItem) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE menu_items SET name = ?, description = ?, category = ?, price_cents = ?, image = ?, is_available = ? WHERE id = ?",
		m.Name, m.Description, m.Category, int64(m.Price), m.Image, m.IsAvailable, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a menu item.
func (r *MenuRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Recommendations ranks available items by how often userID ordered them,
// then by overall popularity.
func (r *MenuRepo) Recommendations(ctx context.Context, userID uint64, limit int) ([]model.Recommendation, error) {
	const q = `SELECT mi.id, mi.cafe_id, mi.name, mi.description, mi.category, mi.price_cents, mi.image,
	                  mi.is_available, mi.created_at, c.name, COUNT(oi.id) AS order_count
	           FROM menu_items mi
	           JOIN cafes c ON c.id = mi.cafe_id
	           LEFT JOIN order_items oi ON oi.menu_item_id = mi.id
	           LEFT JOIN orders o ON o.id = oi.order_id AND o.user_id = ?
	           WHERE mi.is_available = 1
	           GROUP BY mi.id, c.name
	           ORDER BY COUNT(o.id) DESC, order_count DESC, mi.id
	           LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Recommendation
	for rows.Next() {
		var (
			rec   model.Recommendation
			cents int64
		)
		if err := rows.Scan(&rec.ID, &rec.CafeID, &rec.Name, &rec.Description, &rec.Category, &cents,
			&rec.Image, &rec.IsAvailable, &rec.CreatedAt, &rec.CafeName, &rec.OrderCount); err != nil {
			return nil, err
		}
		rec.Price = moneyOf(cents)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *MenuRepo) list(ctx context.Context, q string, args ...any) ([]*model.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMenuItem(row rowScanner) (*model.MenuItem, error) {
	var (
		m     model.MenuItem
		cents int64
	)
	if err := row.Scan(&m.ID, &m.CafeID, &m.Name, &m.Description, &m.Category, &cents, &m.Image, &m.IsAvailable, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Price = moneyOf(cents)
	return &m, nil
}
