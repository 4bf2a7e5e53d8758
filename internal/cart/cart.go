// Package cart owns the client-side shopping cart: line items keyed by
// catalog id, quantity arithmetic and the derived count and total.  The cart
// is persisted through a localstate.Store under the "cart" key and every
// mutation notifies a Refresher with a render-ready View.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/localstate"
)

// ErrInvalidItem is returned by AddItem when the item lacks an id, a name
// or a price, or carries a negative or out-of-range numeric price.  The cart
// is left untouched.
var ErrInvalidItem = errors.New("invalid cart item")

// LineItem is one row of the cart.  ID references a catalog item the cart
// does not own; Price is a snapshot taken when the item was added.
type LineItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       Price  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// Subtotal is price × quantity; a missing or non-numeric price counts as 0.
func (li LineItem) Subtotal() Money {
	m, _ := li.Price.Money()
	return mulQty(m, li.Quantity)
}

// State is the externally visible state of the cart.
type State int

const (
	StateEmpty State = iota
	StateNonEmpty
)

func (s State) String() string {
	if s == StateEmpty {
		return "empty"
	}
	return "non-empty"
}

// Engine applies cart operations against the store.  It is meant to be used
// from a single UI goroutine; two engines over the same store do not
// coordinate.
type Engine struct {
	store     localstate.Store
	refresher Refresher
}

// New returns an Engine persisting to store.  A nil refresher disables the
// UI side effect.
func New(store localstate.Store, refresher Refresher) *Engine {
	if refresher == nil {
		refresher = RefresherFunc(func(View) {})
	}
	return &Engine{store: store, refresher: refresher}
}

// Items returns the current line items; an absent cart is empty.
func (e *Engine) Items(ctx context.Context) ([]LineItem, error) {
	return e.load(ctx)
}

// AddItem appends item or, when a row with the same id exists, increases its
// quantity by item.Quantity.  A non-positive incoming quantity counts as 1
// and a merged quantity stops at math.MaxInt.
func (e *Engine) AddItem(ctx context.Context, item LineItem) ([]LineItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" || strings.TrimSpace(item.Name) == "" || item.Price.IsZero() {
		return nil, ErrInvalidItem
	}
	if _, ok := item.Price.Money(); !ok && item.Price.numeric() {
		return nil, ErrInvalidItem
	}
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}

	items, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	merged := false
	for i := range items {
		if strings.TrimSpace(items[i].ID) == item.ID {
			items[i].Quantity = addQty(items[i].Quantity, qty)
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = qty
		items = append(items, item)
	}
	return e.commit(ctx, items)
}

// RemoveItem drops the row with the given id.  Removing an absent id is a
// no-op and still refreshes the UI.
func (e *Engine) RemoveItem(ctx context.Context, id string) ([]LineItem, error) {
	id = strings.TrimSpace(id)
	items, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, it := range items {
		if strings.TrimSpace(it.ID) != id {
			kept = append(kept, it)
		}
	}
	return e.commit(ctx, kept)
}

// UpdateQuantity sets the quantity of id to exactly quantity.  A quantity of
// zero or less removes the row.  An absent id leaves the rows as they are
// but, like RemoveItem, still persists and refreshes.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, quantity int) ([]LineItem, error) {
	if quantity <= 0 {
		return e.RemoveItem(ctx, id)
	}
	items, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	for i := range items {
		if strings.TrimSpace(items[i].ID) == id {
			items[i].Quantity = quantity
			break
		}
	}
	return e.commit(ctx, items)
}

// Clear empties the cart unconditionally.
func (e *Engine) Clear(ctx context.Context) error {
	_, err := e.commit(ctx, []LineItem{})
	return err
}

// Total is Σ price × quantity.
func (e *Engine) Total(ctx context.Context) (Money, error) {
	items, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	return total(items), nil
}

// Count is Σ quantity.
func (e *Engine) Count(ctx context.Context) (int, error) {
	items, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	return count(items), nil
}

// State reports whether the cart is empty.
func (e *Engine) State(ctx context.Context) (State, error) {
	items, err := e.load(ctx)
	if err != nil {
		return StateEmpty, err
	}
	if len(items) == 0 {
		return StateEmpty, nil
	}
	return StateNonEmpty, nil
}

// View returns the render-ready projection of the current cart.
func (e *Engine) View(ctx context.Context) (View, error) {
	items, err := e.load(ctx)
	if err != nil {
		return View{}, err
	}
	return project(items), nil
}

// Refresh re-renders the current cart without mutating it, e.g. when a
// screen mounts.
func (e *Engine) Refresh(ctx context.Context) error {
	v, err := e.View(ctx)
	if err != nil {
		return err
	}
	e.refresher.Refresh(v)
	return nil
}

func (e *Engine) load(ctx context.Context) ([]LineItem, error) {
	raw, found, err := e.store.Get(ctx, localstate.KeyCart)
	if err != nil {
		return nil, err
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []LineItem{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	for i := range items {
		// rows written without a quantity count as one unit
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// commit persists items and then fires the refresh side effect.
func (e *Engine) commit(ctx context.Context, items []LineItem) ([]LineItem, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	if err := e.store.Set(ctx, localstate.KeyCart, string(b)); err != nil {
		return nil, err
	}
	e.refresher.Refresh(project(items))
	return items, nil
}

func total(items []LineItem) Money {
	var sum Money
	for _, it := range items {
		sum = addMoney(sum, it.Subtotal())
	}
	return sum
}

func count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n = addQty(n, it.Quantity)
	}
	return n
}
