// Package service holds the order placement flow shared by the REST layer:
// pricing from the menu, persistence and the order.placed event.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/queue"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

var (
	// ErrEmptyOrder is returned for an order without lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrUnknownItem is returned when a line references a missing menu item.
	ErrUnknownItem = errors.New("unknown menu item")
	// ErrItemUnavailable is returned for an item switched off by the admin.
	ErrItemUnavailable = errors.New("menu item unavailable")
	// ErrMixedCafes is returned when lines come from more than one cafe.
	ErrMixedCafes = errors.New("items from different cafes")
)

// EventPublisher delivers order events.  *queue.Publisher implements it.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// OrderLine is a requested menu item and quantity.  A quantity below one
// counts as one.
type OrderLine struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// PlaceOrderRequest is the body of POST /api/user/orders.
type PlaceOrderRequest struct {
	Items []OrderLine `json:"items"`
	validation.CheckoutForm
}

// OrderService prices and stores orders.
type OrderService struct {
	Menu    *repository.MenuRepo
	Cafes   *repository.CafeRepo
	Orders  *repository.OrderRepo
	Events  EventPublisher
	Log     *zap.Logger
	Timeout time.Duration // publish timeout, 5s when zero
}

// PlaceOrder prices req from the current menu, stores the order for userID
// and publishes order.placed in the background.  Client supplied prices are
// never trusted.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint64, req PlaceOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	// merge duplicate lines the same way the cart does
	qty := map[uint64]int{}
	var ids []uint64
	for _, l := range req.Items {
		q := l.Quantity
		if q < 1 {
			q = 1
		}
		if _, seen := qty[l.MenuItemID]; !seen {
			ids = append(ids, l.MenuItemID)
		}
		qty[l.MenuItemID] += q
	}

	menu, err := s.Menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		UserID:          userID,
		Status:          model.OrderPending,
		DeliveryAddress: req.DeliveryAddress,
		ContactNumber:   validation.NormalizePhone(req.ContactNumber),
		PaymentMethod:   req.PaymentMethod,
		JazzCashTID:     req.JazzCashTID,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = validation.PaymentCash
	}
	for _, id := range ids {
		m, ok := menu[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownItem, id)
		}
		if !m.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, m.Name)
		}
		if o.CafeID == 0 {
			o.CafeID = m.CafeID
		} else if o.CafeID != m.CafeID {
			return nil, ErrMixedCafes
		}
		line := model.OrderItem{MenuItemID: id, Name: m.Name, Quantity: qty[id], Price: m.Price}
		o.Items = append(o.Items, line)
		o.TotalAmount += line.Subtotal()
	}

	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	if c, err := s.Cafes.GetByID(ctx, o.CafeID); err == nil {
		o.CafeName = c.Name
	}
	o.CreatedAt = time.Now().UTC()

	s.publish(o)
	return o, nil
}

func (s *OrderService) publish(o *model.Order) {
	if s.Events == nil {
		return
	}
	ev := queue.OrderPlacedEvent{
		EventID:       uuid.NewString(),
		OrderID:       o.ID,
		UserID:        o.UserID,
		CafeID:        o.CafeID,
		CafeName:      o.CafeName,
		TotalCents:    int64(o.TotalAmount),
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, queue.OrderEventItem{Name: it.Name, Quantity: it.Quantity})
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Events.PublishOrderPlaced(ctx, ev); err != nil && s.Log != nil {
			s.Log.Warn("order event not published", zap.Uint64("order_id", ev.OrderID), zap.Error(err))
		}
	}()
}

// Total is the sum of the order lines.
func Total(items []model.OrderItem) cart.Money {
	var t cart.Money
	for _, it := range items {
		t += it.Subtotal()
	}
	return t
}
