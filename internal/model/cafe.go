package model

import (
	"time"

	"github.com/iliyamo/smart-cafe/internal/cart"
)

// Cafe is a campus outlet that sells menu items.
type Cafe struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// MenuItem is a row of `menu_items`.  Prices are stored in minor units and
// rendered as a decimal amount.
type MenuItem struct {
	ID          uint64     `json:"id"`
	CafeID      uint64     `json:"cafe_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Price       cart.Money `json:"price"`
	Image       string     `json:"image,omitempty"`
	IsAvailable bool       `json:"is_available"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Recommendation is a menu item ranked by how often it was ordered.
type Recommendation struct {
	MenuItem
	CafeName   string `json:"cafe_name"`
	OrderCount int64  `json:"order_count"`
}
