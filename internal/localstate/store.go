// Package localstate persists the client's small documents (session and cart)
// in a durable key-value store.  Values are opaque strings; callers encode
// structured data as JSON before writing.  There are no multi-key
// transactions: when a backend fails halfway through a sequence of writes the
// error is returned to the caller and nothing is retried.
package localstate

import (
	"context"
	"errors"
)

// Well-known keys shared by the session manager and the cart engine.
const (
	KeyUser            = "user"            // serialized session.Session
	KeyIsAuthenticated = "isAuthenticated" // literal "true" or absent
	KeyCart            = "cart"            // serialized []cart.LineItem
)

// ErrStoreUnavailable wraps any failure of the underlying backend.  Callers
// treat it as fatal for the current operation.
var ErrStoreUnavailable = errors.New("local state store unavailable")

// Store is the contract every backend implements.  Get reports found=false
// for an absent key rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
