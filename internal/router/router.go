// Package router registers the HTTP routes of the API.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-cafe/internal/handler"
	"github.com/iliyamo/smart-cafe/internal/middleware"
	"github.com/iliyamo/smart-cafe/internal/model"
)

// RegisterRoutes registers the health endpoints.  /readyz pings the database.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the /api/auth routes.  Signup, login, refresh and
// logout need no session; /api/auth/me requires any valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleUser, model.RoleFoodAuthority))
}
