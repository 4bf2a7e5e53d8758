package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/config"
	"github.com/iliyamo/smart-cafe/internal/handler"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/service"
	"github.com/iliyamo/smart-cafe/internal/utils"
)

const secret = "router-secret"

func setupRouter(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7}
	log := zap.NewNop()
	users := repository.NewUserRepo(db)
	cafes := repository.NewCafeRepo(db)
	menu := repository.NewMenuRepo(db)
	orders := repository.NewOrderRepo(db)
	notices := repository.NewNotificationRepo(db)
	svc := &service.OrderService{Menu: menu, Cafes: cafes, Orders: orders, Log: log}

	e := echo.New()
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, db)
	RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), log), secret, noop)
	RegisterMenu(e, handler.NewMenuHandler(cafes, menu), noop)
	RegisterUser(e, handler.NewUserHandler(cfg, users, orders, svc, log), secret)
	RegisterAdmin(e, handler.NewAdminHandler(users, cafes, menu, orders, notices, log), secret)
	RegisterFoodAuthority(e, handler.NewFoodAuthorityHandler(cafes, menu, notices, log), secret)
	RegisterLostFound(e, handler.NewReportHandler(repository.NewReportRepo(db), log), secret)
	RegisterDiary(e, handler.NewEntryHandler(repository.NewEntryRepo(db), log), secret)
	return e, mock
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, 7, role, "Ali", 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func call(e *echo.Echo, method, path, auth string) int {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestHealthEndpoints(t *testing.T) {
	e, mock := setupRouter(t)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", ""))

	mock.ExpectPing()
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/readyz", ""))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Equal(t, http.StatusServiceUnavailable, call(e, http.MethodGet, "/readyz", ""))
}

func TestProtectedGroupsRequireToken(t *testing.T) {
	e, _ := setupRouter(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/user/profile"},
		{http.MethodPost, "/api/user/orders"},
		{http.MethodGet, "/api/admin/dashboard"},
		{http.MethodGet, "/api/food-authority/dashboard"},
		{http.MethodPost, "/api/lost-items"},
		{http.MethodDelete, "/api/found-items/3"},
		{http.MethodGet, "/api/entries"},
	} {
		assert.Equal(t, http.StatusUnauthorized, call(e, r.method, r.path, ""), r.path)
	}
}

func TestRoleGates(t *testing.T) {
	e, _ := setupRouter(t)
	user := bearer(t, model.RoleUser)
	fa := bearer(t, model.RoleFoodAuthority)
	admin := bearer(t, model.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/admin/users", user))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/admin/users", fa))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/food-authority/notifications", user))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/user/orders", admin))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/user/profile", fa))
}

func TestUnknownRouteIs404(t *testing.T) {
	e, _ := setupRouter(t)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/api/nowhere", ""))
}

func TestMenuCacheSkipsRecommendations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	marker := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Cache", "MISS")
			return next(c)
		}
	}
	e := echo.New()
	RegisterMenu(e, handler.NewMenuHandler(repository.NewCafeRepo(db), repository.NewMenuRepo(db)), marker)

	cached := func(path string) bool {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Header().Get("X-Cache") != ""
	}
	assert.True(t, cached("/api/menu/cafes"))
	assert.True(t, cached("/api/menu/cafes/1/items"))
	assert.False(t, cached("/api/menu/recommendations/7"))
}
