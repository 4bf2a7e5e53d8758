package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-cafe/internal/handler"
	"github.com/iliyamo/smart-cafe/internal/middleware"
	"github.com/iliyamo/smart-cafe/internal/model"
)

// RegisterMenu registers the public catalog under /api/menu.  Cafes and
// items sit behind the response cache; recommendations follow the user's
// order history and are always computed fresh.
func RegisterMenu(e *echo.Echo, h *handler.MenuHandler, cache echo.MiddlewareFunc) {
	e.GET("/api/menu/recommendations/:userId", h.Recommendations)

	g := e.Group("/api/menu", cache)
	g.GET("/cafes", h.ListCafes)
	g.GET("/cafes/:id/items", h.ListItems)
}

// RegisterUser registers the customer routes under /api/user.  They require
// the user role.
func RegisterUser(e *echo.Echo, h *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api/user",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/orders", h.ListOrders)
	g.POST("/orders", h.PlaceOrder)
}

// RegisterAdmin registers the administration routes under /api/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/users", h.ListUsers)

	g.GET("/cafes", h.ListCafes)
	g.POST("/cafes", h.CreateCafe)
	g.PUT("/cafes/:id", h.UpdateCafe)
	g.DELETE("/cafes/:id", h.DeleteCafe)

	g.GET("/cafes/:id/menus", h.ListMenu)
	g.POST("/cafes/:id/menus", h.CreateMenuItem)
	g.PUT("/cafes/:id/menus/:itemId", h.UpdateMenuItem)
	g.DELETE("/cafes/:id/menus/:itemId", h.DeleteMenuItem)

	g.GET("/orders", h.ListOrders)
	g.PUT("/orders/:id", h.UpdateOrderStatus)

	g.GET("/notifications", h.ListNotifications)
	g.PUT("/notifications/:id/read", h.MarkNotificationRead)
}

// RegisterFoodAuthority registers the inspection routes under
// /api/food-authority.  Admins may use them too.
func RegisterFoodAuthority(e *echo.Echo, h *handler.FoodAuthorityHandler, jwtSecret string) {
	g := e.Group("/api/food-authority",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFoodAuthority, model.RoleAdmin),
	)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/cafes/:id/rates", h.CafeRates)
	g.POST("/notifications", h.SendNotification)
	g.GET("/notifications", h.Notifications)
}
