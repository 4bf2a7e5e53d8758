// Package session keeps the signed-in user in the local state store.  The
// session is the user document plus the isAuthenticated flag; a user is
// signed in only while both are present and the document carries a token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/localstate"
)

// Roles known to the backend.
const (
	RoleAdmin         = "admin"
	RoleUser          = "user"
	RoleFoodAuthority = "food_authority"
)

var (
	// ErrUnauthenticated is returned by Require when nobody is signed in.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrForbidden is returned by Require when the role does not match.
	ErrForbidden = errors.New("role not allowed")
)

// Session is the user document returned by the login endpoint.
type Session struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`

	RefreshToken string `json:"refresh_token,omitempty"`
	StudentID    string `json:"student_id,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Manager reads and writes the session keys.
type Manager struct {
	store localstate.Store
}

// NewManager returns a Manager over store.
func NewManager(store localstate.Store) *Manager {
	return &Manager{store: store}
}

// Set stores s and raises the isAuthenticated flag.  A later Set replaces
// the whole document.
func (m *Manager) Set(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, localstate.KeyUser, string(raw)); err != nil {
		return err
	}
	return m.store.Set(ctx, localstate.KeyIsAuthenticated, "true")
}

// Current returns the stored session.  ok is false when there is none or the
// document cannot be decoded.
func (m *Manager) Current(ctx context.Context) (Session, bool, error) {
	raw, found, err := m.store.Get(ctx, localstate.KeyUser)
	if err != nil {
		return Session{}, false, err
	}
	if !found || strings.TrimSpace(raw) == "" {
		return Session{}, false, nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, false, nil
	}
	return s, true, nil
}

// IsAuthenticated reports whether the flag is set and the session has a
// token.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	flag, _, err := m.store.Get(ctx, localstate.KeyIsAuthenticated)
	if err != nil {
		return false, err
	}
	if flag != "true" {
		return false, nil
	}
	s, ok, err := m.Current(ctx)
	if err != nil || !ok {
		return false, err
	}
	return s.Token != "", nil
}

// Role returns the role of the signed-in user or "" when signed out.
func (m *Manager) Role(ctx context.Context) (string, error) {
	s, err := m.Require(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return "", nil
		}
		return "", err
	}
	return s.Role, nil
}

// Require returns the session when the user is signed in and, if roles are
// given, holds one of them.
func (m *Manager) Require(ctx context.Context, roles ...string) (Session, error) {
	authed, err := m.IsAuthenticated(ctx)
	if err != nil {
		return Session{}, err
	}
	if !authed {
		return Session{}, ErrUnauthenticated
	}
	s, _, err := m.Current(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(roles) == 0 {
		return s, nil
	}
	for _, r := range roles {
		if s.Role == r {
			return s, nil
		}
	}
	return Session{}, ErrForbidden
}

// Clear signs the user out: the user document, the flag and the cart are
// removed together.  Every key is attempted even if one removal fails.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error
	for _, k := range []string{localstate.KeyUser, localstate.KeyIsAuthenticated, localstate.KeyCart} {
		if err := m.store.Remove(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
