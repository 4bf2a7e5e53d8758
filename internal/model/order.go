package model

import (
	"time"

	"github.com/iliyamo/smart-cafe/internal/cart"
)

// Order statuses in their usual progression.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is a placed order with its lines.
type Order struct {
	ID              uint64      `json:"id"`
	UserID          uint64      `json:"user_id"`
	CafeID          uint64      `json:"cafe_id"`
	CafeName        string      `json:"cafe_name,omitempty"`
	Status          string      `json:"status"`
	TotalAmount     cart.Money  `json:"total_amount"`
	DeliveryAddress string      `json:"delivery_address"`
	ContactNumber   string      `json:"contact_number"`
	PaymentMethod   string      `json:"payment_method"`
	JazzCashTID     string      `json:"jazzcash_tid,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
}

// OrderItem is one line of an order.  Name and Price are copied from the menu
// at the time of ordering.
type OrderItem struct {
	ID         uint64     `json:"id"`
	OrderID    uint64     `json:"order_id"`
	MenuItemID uint64     `json:"menu_item_id"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Price      cart.Money `json:"price"`
}

// Subtotal is Price times Quantity.
func (i OrderItem) Subtotal() cart.Money { return i.Price * cart.Money(i.Quantity) }

// DashboardStats backs the admin dashboard.
type DashboardStats struct {
	Users         int64      `json:"users"`
	Cafes         int64      `json:"cafes"`
	MenuItems     int64      `json:"menu_items"`
	Orders        int64      `json:"orders"`
	PendingOrders int64      `json:"pending_orders"`
	Revenue       cart.Money `json:"revenue"`
}

// CafeSummary is a cafe with its menu size, shown to the food authority.
type CafeSummary struct {
	Cafe
	MenuItems int64 `json:"menu_items"`
}
