package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
)

// RecommendationLimit caps GET /api/menu/recommendations/:userId.
const RecommendationLimit = 5

// MenuHandler serves the public catalog.
type MenuHandler struct {
	Cafes *repository.CafeRepo
	Menu  *repository.MenuRepo

	// recs collapses concurrent recommendation queries for the same user.
	recs singleflight.Group
}

func NewMenuHandler(cafes *repository.CafeRepo, menu *repository.MenuRepo) *MenuHandler {
	if cafes == nil || menu == nil {
		panic("nil repository passed to NewMenuHandler")
	}
	return &MenuHandler{Cafes: cafes, Menu: menu}
}

// ListCafes handles GET /api/menu/cafes: active cafes by name.
func (h *MenuHandler) ListCafes(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	cafes, err := h.Cafes.ListActive(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if cafes == nil {
		cafes = []*model.Cafe{}
	}
	return ok(c, http.StatusOK, echo.Map{"cafes": cafes})
}

// ListItems handles GET /api/menu/cafes/:id/items: available items only.
func (h *MenuHandler) ListItems(c echo.Context) error {
	cafeID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid cafe id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	cafe, err := h.Cafes.GetByID(ctx, cafeID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !cafe.IsActive) {
		return fail(c, http.StatusNotFound, "Cafe not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	items, err := h.Menu.ListByCafe(ctx, cafeID, true)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}

// Recommendations handles GET /api/menu/recommendations/:userId.  Items the
// user orders most come first, then the overall favourites.
func (h *MenuHandler) Recommendations(c echo.Context) error {
	userID, valid := pathID(c, "userId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	v, err, _ := h.recs.Do(strconv.FormatUint(userID, 10), func() (any, error) {
		// shared by every caller in the flight, so not bound to one request
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return h.Menu.Recommendations(ctx, userID, RecommendationLimit)
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	recs, _ := v.([]model.Recommendation)
	if recs == nil {
		recs = []model.Recommendation{}
	}
	return ok(c, http.StatusOK, echo.Map{"recommendations": recs})
}
