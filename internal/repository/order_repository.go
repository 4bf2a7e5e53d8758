package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/model"
)

// OrderRepo persists orders and their lines.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create stores o and its items in one transaction and fills the generated
// ids.  Status defaults to pending.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, cafe_id, status, total_cents, delivery_address, contact_number, payment_method, jazzcash_tid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.CafeID, o.Status, int64(o.TotalAmount), o.DeliveryAddress, o.ContactNumber, o.PaymentMethod, o.JazzCashTID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		res, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, menu_item_id, name, quantity, price_cents) VALUES (?, ?, ?, ?, ?)",
			it.OrderID, it.MenuItemID, it.Name, it.Quantity, int64(it.Price))
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if itemID, err := res.LastInsertId(); err == nil {
			it.ID = uint64(itemID)
		}
	}
	return tx.Commit()
}

// ListByUser returns a user's orders, newest first, with their items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return r.list(ctx, "WHERE o.user_id = ?", userID)
}

// ListAll returns every order, newest first.  An empty status lists all of
// them.
func (r *OrderRepo) ListAll(ctx context.Context, status string) ([]*model.Order, error) {
	if status == "" {
		return r.list(ctx, "")
	}
	return r.list(ctx, "WHERE o.status = ?", status)
}

// UpdateStatus moves an order to status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ensureExists(ctx, r.DB, "orders", id)
	}
	return nil
}

// Stats aggregates the admin dashboard counters.
func (r *OrderRepo) Stats(ctx context.Context) (model.DashboardStats, error) {
	const q = `SELECT
	             (SELECT COUNT(*) FROM users WHERE role = 'user'),
	             (SELECT COUNT(*) FROM cafes),
	             (SELECT COUNT(*) FROM menu_items),
	             (SELECT COUNT(*) FROM orders),
	             (SELECT COUNT(*) FROM orders WHERE status = 'pending'),
	             (SELECT COALESCE(SUM(total_cents), 0) FROM orders WHERE status <> 'cancelled')`
	var (
		s       model.DashboardStats
		revenue int64
	)
	err := r.DB.QueryRowContext(ctx, q).Scan(&s.Users, &s.Cafes, &s.MenuItems, &s.Orders, &s.PendingOrders, &revenue)
	s.Revenue = moneyOf(revenue)
	return s, err
}

func (r *OrderRepo) list(ctx context.Context, where string, args ...any) ([]*model.Order, error) {
	q := `SELECT o.id, o.user_id, o.cafe_id, COALESCE(c.name, 'Unknown Cafe'), o.status, o.total_cents,
	             o.delivery_address, o.contact_number, o.payment_method, o.jazzcash_tid, o.created_at
	      FROM orders o LEFT JOIN cafes c ON c.id = o.cafe_id ` + where + ` ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := []*model.Order{}
	byID := map[uint64]*model.Order{}
	for rows.Next() {
		var (
			o     model.Order
			cents int64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.CafeID, &o.CafeName, &o.Status, &cents,
			&o.DeliveryAddress, &o.ContactNumber, &o.PaymentMethod, &o.JazzCashTID, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		o.TotalAmount = moneyOf(cents)
		o.Items = []model.OrderItem{}
		out = append(out, &o)
		byID[o.ID] = &o
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, r.attachItems(ctx, byID, out)
}

func (r *OrderRepo) attachItems(ctx context.Context, byID map[uint64]*model.Order, orders []*model.Order) error {
	args := make([]any, len(orders))
	for i, o := range orders {
		args[i] = o.ID
	}
	q := "SELECT id, order_id, menu_item_id, name, quantity, price_cents FROM order_items WHERE order_id IN (?" +
		strings.Repeat(",?", len(orders)-1) + ") ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it    model.OrderItem
			cents int64
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &cents); err != nil {
			return err
		}
		it.Price = moneyOf(cents)
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func moneyOf(cents int64) cart.Money { return cart.Money(cents) }
