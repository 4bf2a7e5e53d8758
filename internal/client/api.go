// Package client is the consumer side of the REST API: a thin HTTP client
// plus facades that keep the local session, cart and form annotations in
// step with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/session"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// Messages used when the server gives none.
const (
	MsgNetwork    = "Network error. Please try again."
	MsgBadPayload = "Unexpected response from server"
)

const maxResponseBytes = 4 << 20

// Result is the uniform outcome of an API call.  Transport failures and
// non-2xx responses are reported with Success false; they never panic and
// are never returned as Go errors.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Status  int               `json:"-"`
}

// Err converts a failed result into a *TransportError.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &TransportError{Status: r.Status, Message: r.Message, Fields: r.Errors}
}

// TransportError is a failed API call.  Status is 0 when the server could
// not be reached.
type TransportError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// API calls the server at BaseURL.
type API struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

// NewAPI returns an API for baseURL with a 10s request timeout.
func NewAPI(baseURL string, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Log:     log,
	}
}

// do sends in as JSON and decodes a successful body into out.
func (a *API) do(ctx context.Context, method, path, token string, in, out any) Result {
	log := a.Log.With(zap.String("method", method), zap.String("path", path))

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return Result{Message: err.Error()}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return Result{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		log.Warn("api request failed", zap.Error(err))
		return Result{Message: MsgNetwork}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("api read failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return Result{Status: resp.StatusCode, Message: MsgNetwork}
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		res = Result{Message: MsgBadPayload}
		if resp.StatusCode >= 300 {
			res.Message = http.StatusText(resp.StatusCode)
		}
	}
	res.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Success = false
		if res.Message == "" {
			res.Message = http.StatusText(resp.StatusCode)
		}
		log.Debug("api request rejected", zap.Int("status", resp.StatusCode), zap.String("message", res.Message))
		return res
	}
	if !res.Success {
		if res.Message == "" {
			res.Message = MsgBadPayload
		}
		return res
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			log.Warn("api decode failed", zap.Error(err))
			return Result{Status: resp.StatusCode, Message: MsgBadPayload}
		}
	}
	return res
}

// Login exchanges credentials for the session document.
func (a *API) Login(ctx context.Context, f validation.LoginForm) (session.Session, Result) {
	var out struct {
		User session.Session `json:"user"`
	}
	res := a.do(ctx, http.MethodPost, "/api/auth/login", "", f, &out)
	return out.User, res
}

// Signup creates an account.  It does not sign the user in.
func (a *API) Signup(ctx context.Context, f validation.SignupForm) Result {
	return a.do(ctx, http.MethodPost, "/api/auth/signup", "", f, nil)
}

// Logout revokes the refresh token of s.
func (a *API) Logout(ctx context.Context, s session.Session) Result {
	body := map[string]string{"refresh_token": s.RefreshToken}
	return a.do(ctx, http.MethodPost, "/api/auth/logout", s.Token, body, nil)
}

// Profile returns the signed-in user.
func (a *API) Profile(ctx context.Context, token string) (model.User, Result) {
	var out struct {
		User model.User `json:"user"`
	}
	res := a.do(ctx, http.MethodGet, "/api/user/profile", token, nil, &out)
	return out.User, res
}

// UpdateProfile saves f and returns the updated user.
func (a *API) UpdateProfile(ctx context.Context, token string, f validation.ProfileForm) (model.User, Result) {
	var out struct {
		User model.User `json:"user"`
	}
	res := a.do(ctx, http.MethodPut, "/api/user/profile", token, f, &out)
	return out.User, res
}

// Cafes lists the active cafes.
func (a *API) Cafes(ctx context.Context) ([]model.Cafe, Result) {
	var out struct {
		Cafes []model.Cafe `json:"cafes"`
	}
	res := a.do(ctx, http.MethodGet, "/api/menu/cafes", "", nil, &out)
	return out.Cafes, res
}

// MenuItems lists the available items of a cafe.
func (a *API) MenuItems(ctx context.Context, cafeID uint64) ([]model.MenuItem, Result) {
	var out struct {
		Items []model.MenuItem `json:"items"`
	}
	path := "/api/menu/cafes/" + strconv.FormatUint(cafeID, 10) + "/items"
	res := a.do(ctx, http.MethodGet, path, "", nil, &out)
	return out.Items, res
}

// Recommendations returns the most ordered items for userID.
func (a *API) Recommendations(ctx context.Context, userID uint64) ([]model.Recommendation, Result) {
	var out struct {
		Recommendations []model.Recommendation `json:"recommendations"`
	}
	path := "/api/menu/recommendations/" + strconv.FormatUint(userID, 10)
	res := a.do(ctx, http.MethodGet, path, "", nil, &out)
	return out.Recommendations, res
}

// OrderLine is one requested item of an order.
type OrderLine struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// OrderRequest is the body of a new order.  The server prices it.
type OrderRequest struct {
	Items []OrderLine `json:"items"`
	validation.CheckoutForm
}

// Orders lists the orders of the signed-in user, newest first.
func (a *API) Orders(ctx context.Context, token string) ([]model.Order, Result) {
	var out struct {
		Orders []model.Order `json:"orders"`
	}
	res := a.do(ctx, http.MethodGet, "/api/user/orders", token, nil, &out)
	return out.Orders, res
}

// PlaceOrder submits req and returns the stored order.
func (a *API) PlaceOrder(ctx context.Context, token string, req OrderRequest) (model.Order, Result) {
	var out struct {
		Order model.Order `json:"order"`
	}
	res := a.do(ctx, http.MethodPost, "/api/user/orders", token, req, &out)
	return out.Order, res
}

// ReportRequest is the body of a lost or found report.
type ReportRequest struct {
	validation.ItemReportForm
	Date     string `json:"date,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Report files a report of kind (model.KindLost or model.KindFound).
func (a *API) Report(ctx context.Context, token, kind string, req ReportRequest) (model.ItemReport, Result) {
	var out struct {
		Item model.ItemReport `json:"item"`
	}
	res := a.do(ctx, http.MethodPost, "/api/"+kind+"-items", token, req, &out)
	return out.Item, res
}

// Matches returns open reports of kind whose name contains name.
func (a *API) Matches(ctx context.Context, kind, name string) ([]model.ItemReport, Result) {
	var out struct {
		Items []model.ItemReport `json:"items"`
	}
	path := "/api/matching/" + kind + "/" + url.PathEscape(name)
	res := a.do(ctx, http.MethodGet, path, "", nil, &out)
	return out.Items, res
}
