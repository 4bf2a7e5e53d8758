package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// AdminHandler groups the cafe administration endpoints.
type AdminHandler struct {
	Users   *repository.UserRepo
	Cafes   *repository.CafeRepo
	Menu    *repository.MenuRepo
	Orders  *repository.OrderRepo
	Notices *repository.NotificationRepo
	Log     *zap.Logger

	// Invalidate drops cached catalog responses after an edit.  Optional.
	Invalidate func(context.Context) error
}

func NewAdminHandler(users *repository.UserRepo, cafes *repository.CafeRepo, menu *repository.MenuRepo, orders *repository.OrderRepo, notices *repository.NotificationRepo, log *zap.Logger) *AdminHandler {
	if users == nil || cafes == nil || menu == nil || orders == nil || notices == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{Users: users, Cafes: cafes, Menu: menu, Orders: orders, Notices: notices, Log: log}
}

type cafeReq struct {
	validation.CafeForm
	Image    string `json:"image"`
	IsActive *bool  `json:"is_active"`
}

type menuItemReq struct {
	Name        string     `json:"name"`
	Price       cart.Price `json:"price"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Image       string     `json:"image"`
	IsAvailable *bool      `json:"is_available"`
}

func (r menuItemReq) form() validation.MenuItemForm {
	return validation.MenuItemForm{Name: r.Name, Price: string(r.Price), Description: r.Description, Category: r.Category}
}

func (h *AdminHandler) invalidate(ctx context.Context) {
	if h.Invalidate == nil {
		return
	}
	if err := h.Invalidate(ctx); err != nil {
		h.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	stats, err := h.Orders.Stats(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"stats": stats})
}

// ListUsers handles GET /api/admin/users?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := strings.TrimSpace(c.QueryParam("role"))
	if role != "" && !model.ValidRole(role) {
		return fail(c, http.StatusBadRequest, "invalid role")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.List(ctx, role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"users": users})
}

// ListCafes handles GET /api/admin/cafes, inactive cafes included.
func (h *AdminHandler) ListCafes(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	cafes, err := h.Cafes.ListAll(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if cafes == nil {
		cafes = []*model.Cafe{}
	}
	return ok(c, http.StatusOK, echo.Map{"cafes": cafes})
}

// CreateCafe handles POST /api/admin/cafes.
func (h *AdminHandler) CreateCafe(c echo.Context) error {
	var req cafeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateCafe(req.CafeForm) {
		return invalid(c, fe)
	}
	cafe := &model.Cafe{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Image:       strings.TrimSpace(req.Image),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Cafes.Create(ctx, cafe); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Cafe already exists")
		}
		h.Log.Error("create cafe", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "create cafe failed")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusCreated, echo.Map{"message": "Cafe created successfully", "cafe": cafe})
}

// UpdateCafe handles PUT /api/admin/cafes/:id.  Omitted fields keep their
// value.
func (h *AdminHandler) UpdateCafe(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	var req cafeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	cafe, err := h.Cafes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cafe not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	mergeString(&cafe.Name, req.Name)
	mergeString(&cafe.Description, req.Description)
	mergeString(&cafe.Location, req.Location)
	mergeString(&cafe.Image, req.Image)
	if req.IsActive != nil {
		cafe.IsActive = *req.IsActive
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateCafe(validation.CafeForm{Name: cafe.Name, Description: cafe.Description, Location: cafe.Location}) {
		return invalid(c, fe)
	}
	if err := h.Cafes.Update(ctx, cafe); err != nil {
		return writeErr(c, err, "Cafe")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Cafe updated successfully", "cafe": cafe})
}

// DeleteCafe handles DELETE /api/admin/cafes/:id.  Menu items go with it.
func (h *AdminHandler) DeleteCafe(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Cafes.Delete(ctx, id); err != nil {
		return writeErr(c, err, "Cafe")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Cafe deleted successfully"})
}

// ListMenu handles GET /api/admin/cafes/:id/menus, unavailable items
// included.
func (h *AdminHandler) ListMenu(c echo.Context) error {
	cafeID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.Menu.ListByCafe(ctx, cafeID, false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}

// CreateMenuItem handles POST /api/admin/cafes/:id/menus.
func (h *AdminHandler) CreateMenuItem(c echo.Context) error {
	cafeID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateMenuItem(req.form()) {
		return invalid(c, fe)
	}
	price, _ := req.Price.Money()

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Cafes.GetByID(ctx, cafeID); err != nil {
		return writeErr(c, err, "Cafe")
	}
	item := &model.MenuItem{
		CafeID:      cafeID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       price,
		Image:       strings.TrimSpace(req.Image),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.Menu.Create(ctx, item); err != nil {
		h.Log.Error("create menu item", zap.Uint64("cafe_id", cafeID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "create menu item failed")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusCreated, echo.Map{"message": "Menu item created successfully", "item": item})
}

// UpdateMenuItem handles PUT /api/admin/cafes/:id/menus/:itemId.
func (h *AdminHandler) UpdateMenuItem(c echo.Context) error {
	cafeID, okCafe := pathID(c, "id")
	itemID, okItem := pathID(c, "itemId")
	if !okCafe || !okItem {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	item, err := h.Menu.GetByID(ctx, itemID)
	if err == nil && item.CafeID != cafeID {
		err = repository.ErrNotFound
	}
	if err != nil {
		return writeErr(c, err, "Menu item")
	}
	mergeString(&item.Name, req.Name)
	mergeString(&item.Description, req.Description)
	mergeString(&item.Category, req.Category)
	mergeString(&item.Image, req.Image)
	if !req.Price.IsZero() {
		form := req.form()
		form.Name = item.Name
		fe := validation.NewFieldErrors()
		if !validation.New(fe).ValidateMenuItem(form) {
			return invalid(c, fe)
		}
		item.Price, _ = req.Price.Money()
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := h.Menu.Update(ctx, item); err != nil {
		return writeErr(c, err, "Menu item")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Menu item updated successfully", "item": item})
}

// DeleteMenuItem handles DELETE /api/admin/cafes/:id/menus/:itemId.
func (h *AdminHandler) DeleteMenuItem(c echo.Context) error {
	itemID, valid := pathID(c, "itemId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Menu.Delete(ctx, itemID); err != nil {
		return writeErr(c, err, "Menu item")
	}
	h.invalidate(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Menu item deleted successfully"})
}

// ListOrders handles GET /api/admin/orders?status=.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidOrderStatus(status) {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx, status)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"orders": orders})
}

// UpdateOrderStatus handles PUT /api/admin/orders/:id with {"status"}.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidOrderStatus(status) {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Orders.UpdateStatus(ctx, id, status); err != nil {
		return writeErr(c, err, "Order")
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Order status updated", "status": status})
}

// ListNotifications handles GET /api/admin/notifications?unread=1.
func (h *AdminHandler) ListNotifications(c echo.Context) error {
	unread := c.QueryParam("unread") == "1" || strings.EqualFold(c.QueryParam("unread"), "true")
	ctx, cancel := dbContext(c)
	defer cancel()

	notices, err := h.Notices.List(ctx, unread)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if notices == nil {
		notices = []*model.Notification{}
	}
	return ok(c, http.StatusOK, echo.Map{"notifications": notices})
}

// MarkNotificationRead handles PUT /api/admin/notifications/:id/read.
func (h *AdminHandler) MarkNotificationRead(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid notification id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Notices.MarkRead(ctx, id); err != nil {
		return writeErr(c, err, "Notification")
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

// mergeString overwrites *dst with v unless v is blank.
func mergeString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// writeErr maps repository sentinels to statuses.
func writeErr(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, what+" already exists")
	}
	return fail(c, http.StatusInternalServerError, "database error")
}
