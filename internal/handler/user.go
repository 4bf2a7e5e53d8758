package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/config"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/service"
	"github.com/iliyamo/smart-cafe/internal/utils"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// UserHandler serves the signed-in customer: profile and order history.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Orders *repository.OrderRepo
	Svc    *service.OrderService
	Log    *zap.Logger
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, orders *repository.OrderRepo, svc *service.OrderService, log *zap.Logger) *UserHandler {
	if users == nil || orders == nil || svc == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{Cfg: cfg, Users: users, Orders: orders, Svc: svc, Log: log}
}

// GetProfile handles GET /api/user/profile.
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"user": u})
}

// UpdateProfile handles PUT /api/user/profile.  Blank fields are left as
// they are; a new password must be strong and confirmed.  The updated user
// is returned so the client can replace its session document.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req validation.ProfileForm
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateProfile(req) {
		return invalid(c, fe)
	}

	upd := repository.ProfileUpdate{
		Email:   req.Email,
		Phone:   validation.NormalizePhone(req.Phone),
		Address: req.Address,
	}
	if req.NewPassword != "" {
		hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "hash password failed")
		}
		upd.PasswordHash = hash
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	switch err := h.Users.UpdateProfile(ctx, uid, upd); {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, "Email already exists")
	case err != nil:
		h.Log.Error("update profile", zap.Uint64("user_id", uid), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "update failed")
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": u})
}

// ListOrders handles GET /api/user/orders, newest first.
func (h *UserHandler) ListOrders(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"orders": orders})
}

// PlaceOrder handles POST /api/user/orders.  Prices come from the menu, not
// from the request.
func (h *UserHandler) PlaceOrder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req service.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateCheckout(req.CheckoutForm) {
		return invalid(c, fe)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	o, err := h.Svc.PlaceOrder(ctx, uid, req)
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrUnknownItem),
		errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrMixedCafes):
		return fail(c, http.StatusBadRequest, err.Error())
	case err != nil:
		h.Log.Error("place order", zap.Uint64("user_id", uid), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "place order failed")
	}
	return ok(c, http.StatusCreated, echo.Map{
		"message":  "Order placed successfully",
		"order_id": o.ID,
		"order":    o,
	})
}
