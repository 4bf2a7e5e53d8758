package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// FoodAuthorityHandler lets inspectors review cafes and their prices and
// raise notices to the admins.
type FoodAuthorityHandler struct {
	Cafes   *repository.CafeRepo
	Menu    *repository.MenuRepo
	Notices *repository.NotificationRepo
	Log     *zap.Logger
}

func NewFoodAuthorityHandler(cafes *repository.CafeRepo, menu *repository.MenuRepo, notices *repository.NotificationRepo, log *zap.Logger) *FoodAuthorityHandler {
	if cafes == nil || menu == nil || notices == nil {
		panic("nil repository passed to NewFoodAuthorityHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FoodAuthorityHandler{Cafes: cafes, Menu: menu, Notices: notices, Log: log}
}

// Dashboard handles GET /api/food-authority/dashboard: every cafe with its
// menu size.
func (h *FoodAuthorityHandler) Dashboard(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	cafes, err := h.Cafes.Summaries(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if cafes == nil {
		cafes = []model.CafeSummary{}
	}
	return ok(c, http.StatusOK, echo.Map{"cafes": cafes})
}

// CafeRates handles GET /api/food-authority/cafes/:id/rates: the full menu
// of a cafe with prices, unavailable items included.
func (h *FoodAuthorityHandler) CafeRates(c echo.Context) error {
	cafeID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	cafe, err := h.Cafes.GetByID(ctx, cafeID)
	if err != nil {
		return writeErr(c, err, "Cafe")
	}
	items, err := h.Menu.ListByCafe(ctx, cafeID, false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	return ok(c, http.StatusOK, echo.Map{"cafe": cafe, "items": items})
}

type notificationReq struct {
	validation.NotificationForm
	CafeID *uint64 `json:"cafe_id"`
}

// SendNotification handles POST /api/food-authority/notifications.
func (h *FoodAuthorityHandler) SendNotification(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req notificationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateNotification(req.NotificationForm) {
		return invalid(c, fe)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if req.CafeID != nil {
		if _, err := h.Cafes.GetByID(ctx, *req.CafeID); err != nil {
			return writeErr(c, err, "Cafe")
		}
	}
	n := &model.Notification{
		SenderID: uid,
		CafeID:   req.CafeID,
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
	}
	if err := h.Notices.Create(ctx, n); err != nil {
		h.Log.Error("create notification", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "send notification failed")
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "Notification sent successfully", "notification": n})
}

// Notifications handles GET /api/food-authority/notifications.
func (h *FoodAuthorityHandler) Notifications(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	notices, err := h.Notices.List(ctx, false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if notices == nil {
		notices = []*model.Notification{}
	}
	return ok(c, http.StatusOK, echo.Map{"notifications": notices})
}
