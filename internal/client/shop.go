package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/localstate"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/session"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

var (
	// ErrNoData replaces the hardcoded catalog the recommendation and
	// matching views once fell back to.
	ErrNoData = errors.New("no data available")
	// ErrSubmitInFlight is returned when a form is submitted again before
	// the previous submission finished.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrInvalidForm means the form failed validation.  The field messages
	// went to the annotator.
	ErrInvalidForm = errors.New("please correct the highlighted fields")
	// ErrEmptyCart is returned by Checkout when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
)

// Forms guarded against double submission.
const (
	FormLogin    = "login"
	FormSignup   = "signup"
	FormProfile  = "profile"
	FormCheckout = "checkout"
	FormReport   = "report"
)

// Shop is the cafe client: session, cart, form validation and API calls
// behind one facade.
type Shop struct {
	API     *API
	Session *session.Manager
	Cart    *cart.Engine
	Fields  validation.Annotator
	Log     *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewShop wires a Shop over store.  refresher receives the cart view after
// every cart mutation and fields receives form annotations; both may be nil.
func NewShop(api *API, store localstate.Store, refresher cart.Refresher, fields validation.Annotator, log *zap.Logger) *Shop {
	if log == nil {
		log = zap.NewNop()
	}
	if fields == nil {
		fields = validation.Discard
	}
	return &Shop{
		API:      api,
		Session:  session.NewManager(store),
		Cart:     cart.New(store, refresher),
		Fields:   fields,
		Log:      log,
		inFlight: make(map[string]bool),
	}
}

// begin marks form as submitting.  The returned func must be called when
// the submission ends.
func (s *Shop) begin(form string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[form] {
		return nil, ErrSubmitInFlight
	}
	s.inFlight[form] = true
	return func() {
		s.mu.Lock()
		delete(s.inFlight, form)
		s.mu.Unlock()
	}, nil
}

func (s *Shop) validator() *validation.Validator { return validation.New(s.Fields) }

// Login signs in and stores the returned session.
func (s *Shop) Login(ctx context.Context, f validation.LoginForm) (session.Session, error) {
	done, err := s.begin(FormLogin)
	if err != nil {
		return session.Session{}, err
	}
	defer done()

	if !s.validator().ValidateLogin(f) {
		return session.Session{}, ErrInvalidForm
	}
	sess, res := s.API.Login(ctx, f)
	if !res.Success {
		return session.Session{}, res.Err()
	}
	if err := s.Session.Set(ctx, sess); err != nil {
		return session.Session{}, err
	}
	s.Log.Info("signed in", zap.Uint64("user_id", sess.ID), zap.String("role", sess.Role))
	return sess, nil
}

// Signup creates an account.  The caller signs in afterwards.
func (s *Shop) Signup(ctx context.Context, f validation.SignupForm) error {
	done, err := s.begin(FormSignup)
	if err != nil {
		return err
	}
	defer done()

	if !s.validator().ValidateSignup(f) {
		return ErrInvalidForm
	}
	f.Phone = validation.NormalizePhone(f.Phone)
	return s.API.Signup(ctx, f).Err()
}

// Logout revokes the refresh token when possible, always clears the
// session and the cart, and re-renders the now empty cart.
func (s *Shop) Logout(ctx context.Context) error {
	if sess, ok, err := s.Session.Current(ctx); err == nil && ok && sess.Token != "" {
		if res := s.API.Logout(ctx, sess); !res.Success {
			s.Log.Warn("server logout failed", zap.String("message", res.Message))
		}
	}
	if err := s.Session.Clear(ctx); err != nil {
		return err
	}
	return s.Cart.Refresh(ctx)
}

// UpdateProfile saves f and replaces the stored session with the updated
// user, keeping the tokens.
func (s *Shop) UpdateProfile(ctx context.Context, f validation.ProfileForm) (session.Session, error) {
	done, err := s.begin(FormProfile)
	if err != nil {
		return session.Session{}, err
	}
	defer done()

	cur, err := s.Session.Require(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if !s.validator().ValidateProfile(f) {
		return session.Session{}, ErrInvalidForm
	}
	u, res := s.API.UpdateProfile(ctx, cur.Token, f)
	if !res.Success {
		return session.Session{}, res.Err()
	}
	next := session.Session{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Token:        cur.Token,
		RefreshToken: cur.RefreshToken,
		StudentID:    u.StudentID,
		Phone:        u.Phone,
		Address:      u.Address,
	}
	if err := s.Session.Set(ctx, next); err != nil {
		return session.Session{}, err
	}
	return next, nil
}

// Recommendations returns the suggested items for the signed-in user.  An
// unreachable endpoint or an empty list yields ErrNoData.
func (s *Shop) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	cur, err := s.Session.Require(ctx)
	if err != nil {
		return nil, err
	}
	recs, res := s.API.Recommendations(ctx, cur.ID)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrNoData, res.Message)
	}
	if len(recs) == 0 {
		return nil, ErrNoData
	}
	return recs, nil
}

// AddToCart adds quantity of m to the cart.
func (s *Shop) AddToCart(ctx context.Context, m model.MenuItem, quantity int) ([]cart.LineItem, error) {
	return s.Cart.AddItem(ctx, LineItemFor(m, quantity))
}

// LineItemFor snapshots a menu item as a cart row.
func LineItemFor(m model.MenuItem, quantity int) cart.LineItem {
	return cart.LineItem{
		ID:          strconv.FormatUint(m.ID, 10),
		Name:        m.Name,
		Price:       cart.PriceFromMoney(m.Price),
		Quantity:    quantity,
		Image:       m.Image,
		Description: m.Description,
	}
}

// Checkout places the cart as an order for the signed-in user and clears
// the cart once the server accepted it.
func (s *Shop) Checkout(ctx context.Context, f validation.CheckoutForm) (model.Order, error) {
	done, err := s.begin(FormCheckout)
	if err != nil {
		return model.Order{}, err
	}
	defer done()

	cur, err := s.Session.Require(ctx, session.RoleUser)
	if err != nil {
		return model.Order{}, err
	}
	items, err := s.Cart.Items(ctx)
	if err != nil {
		return model.Order{}, err
	}
	if len(items) == 0 {
		return model.Order{}, ErrEmptyCart
	}
	if !s.validator().ValidateCheckout(f) {
		return model.Order{}, ErrInvalidForm
	}

	req := OrderRequest{CheckoutForm: f, Items: make([]OrderLine, 0, len(items))}
	for _, li := range items {
		id, err := strconv.ParseUint(li.ID, 10, 64)
		if err != nil {
			return model.Order{}, fmt.Errorf("%w: id %q", cart.ErrInvalidItem, li.ID)
		}
		req.Items = append(req.Items, OrderLine{MenuItemID: id, Quantity: li.Quantity})
	}

	o, res := s.API.PlaceOrder(ctx, cur.Token, req)
	if !res.Success {
		return model.Order{}, res.Err()
	}
	if err := s.Cart.Clear(ctx); err != nil {
		s.Log.Warn("clear cart after checkout", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}
