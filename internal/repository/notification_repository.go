package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/smart-cafe/internal/model"
)

// NotificationRepo stores food authority notices for the admins.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts n and fills its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	var cafeID sql.NullInt64
	if n.CafeID != nil {
		cafeID = sql.NullInt64{Int64: int64(*n.CafeID), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (sender_id, cafe_id, subject, message) VALUES (?, ?, ?, ?)",
		n.SenderID, cafeID, n.Subject, n.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// List returns notices newest first with the sender's name.
func (r *NotificationRepo) List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error) {
	q := `SELECT n.id, n.sender_id, COALESCE(u.name, ''), n.cafe_id, n.subject, n.message, n.is_read, n.created_at
	      FROM notifications n LEFT JOIN users u ON u.id = n.sender_id`
	if unreadOnly {
		q += " WHERE n.is_read = 0"
	}
	q += " ORDER BY n.created_at DESC, n.id DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		var (
			n      model.Notification
			cafeID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.SenderID, &n.SenderName, &cafeID, &n.Subject, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if cafeID.Valid {
			id := uint64(cafeID.Int64)
			n.CafeID = &id
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead flags a notice as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ensureExists(ctx, r.DB, "notifications", id)
	}
	return nil
}
