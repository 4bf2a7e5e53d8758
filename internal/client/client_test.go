package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/localstate"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/session"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

var ctx = context.Background()

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func setupShop(t *testing.T, mux *http.ServeMux) (*Shop, *localstate.Memory, *validation.FieldErrors) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	store := localstate.NewMemory()
	fe := validation.NewFieldErrors()
	return NewShop(NewAPI(srv.URL, nil), store, nil, fe, nil), store, fe
}

func signIn(t *testing.T, s *Shop, role string) {
	t.Helper()
	require.NoError(t, s.Session.Set(ctx, session.Session{
		ID: 7, Name: "Ali", Email: "ali@student.com", Role: role, Token: "tok", RefreshToken: "rt",
	}))
}

func TestAPI_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, res := NewAPI(base, nil).Cafes(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, MsgNetwork, res.Message)
	assert.Equal(t, 0, res.Status)

	var te *TransportError
	require.ErrorAs(t, res.Err(), &te)
	assert.Equal(t, MsgNetwork, te.Error())
}

func TestAPI_Non2xx(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid email or password"}`)
	})
	mux.HandleFunc("/api/menu/cafes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	api := NewAPI(srv.URL+"/", nil)

	_, res := api.Login(ctx, validation.LoginForm{Email: "a@b.com", Password: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid email or password", res.Message)

	_, res = api.Cafes(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), res.Message)
}

func TestAPI_FieldErrorsSurface(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"success":false,"message":"Please correct the highlighted fields","errors":{"signupEmail":"Please enter a valid email address"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := NewAPI(srv.URL, nil).Signup(ctx, validation.SignupForm{})
	var te *TransportError
	require.ErrorAs(t, res.Err(), &te)
	assert.Equal(t, http.StatusBadRequest, te.Status)
	assert.Equal(t, validation.MsgEmail, te.Fields[validation.FieldSignupEmail])
}

func TestShop_LoginStoresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var f validation.LoginForm
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f))
		assert.Equal(t, "ali@student.com", f.Email)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true,"user":{"id":7,"name":"Ali","email":"ali@student.com","role":"user","token":"tok","refresh_token":"rt"}}`)
	})
	shop, _, _ := setupShop(t, mux)

	sess, err := shop.Login(ctx, validation.LoginForm{Email: "ali@student.com", Password: "Abc123!@"})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), sess.ID)

	authed, err := shop.Session.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authed)
	role, err := shop.Session.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, role)
}

func TestShop_InvalidFormSendsNothing(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	shop, _, fe := setupShop(t, mux)

	_, err := shop.Login(ctx, validation.LoginForm{Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, 2, fe.Len())

	err = shop.Signup(ctx, validation.SignupForm{Name: "Ali"})
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, int32(0), calls.Load())
}

func TestShop_LoginFailureLeavesSignedOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid email or password"}`)
	})
	shop, _, _ := setupShop(t, mux)

	_, err := shop.Login(ctx, validation.LoginForm{Email: "ali@student.com", Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
	authed, _ := shop.Session.IsAuthenticated(ctx)
	assert.False(t, authed)
}

func TestShop_LogoutClearsSessionAndCart(t *testing.T) {
	var revoked atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		revoked.Store(true)
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Logged out successfully"}`)
	})
	shop, store, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)
	_, err := shop.Cart.AddItem(ctx, cart.LineItem{ID: "1", Name: "Tea", Price: "50"})
	require.NoError(t, err)

	require.NoError(t, shop.Logout(ctx))
	assert.True(t, revoked.Load())
	assert.Equal(t, 0, store.Len())
}

func TestShop_LogoutOfflineStillClears(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	store := localstate.NewMemory()
	shop := NewShop(NewAPI(base, nil), store, nil, nil, nil)
	signIn(t, shop, session.RoleUser)

	require.NoError(t, shop.Logout(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestShop_LogoutRefreshesCartView(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var views []cart.View
	shop := NewShop(NewAPI(srv.URL, nil), localstate.NewMemory(),
		cart.RefresherFunc(func(v cart.View) { views = append(views, v) }), nil, nil)
	signIn(t, shop, session.RoleUser)
	_, err := shop.Cart.AddItem(ctx, cart.LineItem{ID: "1", Name: "Tea", Price: "50", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].Count)

	require.NoError(t, shop.Logout(ctx))
	require.Len(t, views, 2)
	assert.Equal(t, 0, views[1].Count)
	assert.True(t, views[1].Empty)
}

func TestShop_UpdateProfileReplacesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		writeJSON(w, http.StatusOK, `{"success":true,"user":{"id":7,"name":"Ali","email":"new@student.com","role":"user","phone":"923001234567"}}`)
	})
	shop, _, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)

	next, err := shop.UpdateProfile(ctx, validation.ProfileForm{Email: "new@student.com", Phone: "923001234567"})
	require.NoError(t, err)
	assert.Equal(t, "tok", next.Token)

	cur, ok, err := shop.Session.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new@student.com", cur.Email)
	assert.Equal(t, "923001234567", cur.Phone)
	assert.Equal(t, "rt", cur.RefreshToken)
}

func TestShop_UpdateProfileRequiresSession(t *testing.T) {
	shop, _, _ := setupShop(t, http.NewServeMux())
	_, err := shop.UpdateProfile(ctx, validation.ProfileForm{})
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestShop_Recommendations(t *testing.T) {
	var body atomic.Value
	body.Store(`{"success":true,"recommendations":[{"id":3,"cafe_id":1,"name":"Club Sandwich","price":300.00,"is_available":true,"cafe_name":"Cafe De Light","order_count":9}]}`)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/menu/recommendations/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body.Load().(string))
	})
	shop, _, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)

	recs, err := shop.Recommendations(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, cart.Money(30000), recs[0].Price)
	assert.Equal(t, int64(9), recs[0].OrderCount)

	body.Store(`{"success":true,"recommendations":[]}`)
	_, err = shop.Recommendations(ctx)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestShop_RecommendationsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	shop := NewShop(NewAPI(base, nil), localstate.NewMemory(), nil, nil, nil)
	signIn(t, shop, session.RoleUser)

	recs, err := shop.Recommendations(ctx)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, recs)
}

var checkoutForm = validation.CheckoutForm{
	DeliveryAddress: "Hostel 3, Room 12",
	ContactNumber:   "923001234567",
}

func TestShop_CheckoutClearsCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/orders", func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []OrderLine{{MenuItemID: 3, Quantity: 2}, {MenuItemID: 5, Quantity: 1}}, req.Items)
		assert.Equal(t, "Hostel 3, Room 12", req.DeliveryAddress)
		writeJSON(w, http.StatusCreated, `{"success":true,"order_id":11,"order":{"id":11,"user_id":7,"cafe_id":1,"status":"pending","total_amount":700.00,"items":[]}}`)
	})
	shop, _, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)
	_, err := shop.AddToCart(ctx, model.MenuItem{ID: 3, Name: "Club Sandwich", Price: 30000}, 2)
	require.NoError(t, err)
	_, err = shop.AddToCart(ctx, model.MenuItem{ID: 5, Name: "Tea", Price: 10000}, 1)
	require.NoError(t, err)

	o, err := shop.Checkout(ctx, checkoutForm)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), o.ID)
	assert.Equal(t, cart.Money(70000), o.TotalAmount)

	st, err := shop.Cart.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, cart.StateEmpty, st)
}

func TestShop_CheckoutFailureKeepsCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"success":false,"message":"menu item unavailable"}`)
	})
	shop, _, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)
	_, err := shop.AddToCart(ctx, model.MenuItem{ID: 3, Name: "Club Sandwich", Price: 30000}, 1)
	require.NoError(t, err)

	_, err = shop.Checkout(ctx, checkoutForm)
	require.Error(t, err)
	n, err := shop.Cart.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestShop_CheckoutGuards(t *testing.T) {
	shop, _, _ := setupShop(t, http.NewServeMux())

	_, err := shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	signIn(t, shop, session.RoleAdmin)
	_, err = shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, session.ErrForbidden)

	signIn(t, shop, session.RoleUser)
	_, err = shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = shop.Cart.AddItem(ctx, cart.LineItem{ID: "x", Name: "Mystery", Price: "10"})
	require.NoError(t, err)
	_, err = shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, cart.ErrInvalidItem)

	_, err = shop.Checkout(ctx, validation.CheckoutForm{})
	assert.ErrorIs(t, err, ErrInvalidForm)
}

func TestShop_SubmitInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/orders", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeJSON(w, http.StatusCreated, `{"success":true,"order":{"id":1,"status":"pending","total_amount":50}}`)
	})
	shop, _, _ := setupShop(t, mux)
	signIn(t, shop, session.RoleUser)
	_, err := shop.Cart.AddItem(ctx, cart.LineItem{ID: "1", Name: "Tea", Price: "50"})
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := shop.Checkout(ctx, checkoutForm)
		errc <- err
	}()
	<-entered

	_, err = shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-errc)

	_, err = shop.Checkout(ctx, checkoutForm)
	assert.ErrorIs(t, err, ErrEmptyCart, "guard released after the first submit")
}

func TestBoard_PotentialMatches(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/matching/found/wal", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true,"items":[{"id":4,"kind":"found","name":"Black Wallet","status":"open","date":"2025-03-01T00:00:00Z"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	b := NewBoard(NewAPI(srv.URL, nil), session.NewManager(localstate.NewMemory()), nil)

	items, err := b.PotentialMatches(ctx, model.KindLost, "wa")
	require.NoError(t, err)
	assert.Nil(t, items)
	assert.Equal(t, int32(0), calls.Load())

	items, err = b.PotentialMatches(ctx, model.KindLost, " wal ")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Black Wallet", items[0].Name)

	_, err = b.PotentialMatches(ctx, model.KindLost, "keys")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestBoard_Report(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lost-items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, `{"success":true,"message":"Lost item reported successfully","item":{"id":9,"kind":"lost","name":"Black Wallet","status":"open"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	sess := session.NewManager(localstate.NewMemory())
	b := NewBoard(NewAPI(srv.URL, nil), sess, nil)

	form := ReportRequest{ItemReportForm: validation.ItemReportForm{Name: "Black Wallet", Description: "leather", Location: "Library"}}
	_, err := b.Report(ctx, model.KindLost, form)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	require.NoError(t, sess.Set(ctx, session.Session{ID: 7, Role: session.RoleUser, Token: "tok"}))
	rep, err := b.Report(ctx, model.KindLost, form)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), rep.ID)

	_, err = b.Report(ctx, model.KindLost, ReportRequest{})
	assert.ErrorIs(t, err, ErrInvalidForm)
}
