package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-cafe/internal/handler"
	"github.com/iliyamo/smart-cafe/internal/middleware"
	"github.com/iliyamo/smart-cafe/internal/model"
)

var anyRole = []string{model.RoleAdmin, model.RoleUser, model.RoleFoodAuthority}

// RegisterLostFound registers the lost-items and found-items boards and the
// matching lookups.  Reading is public; reporting, editing and deleting
// require a signed-in user.
func RegisterLostFound(e *echo.Echo, h *handler.ReportHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(anyRole...)}

	for _, b := range []struct{ prefix, kind string }{
		{"/api/lost-items", model.KindLost},
		{"/api/found-items", model.KindFound},
	} {
		g := e.Group(b.prefix)
		g.GET("", h.List(b.kind))
		g.GET("/:id", h.Get(b.kind))
		g.POST("", h.Create(b.kind), auth...)
		g.PUT("/:id", h.Update(b.kind), auth...)
		g.DELETE("/:id", h.Delete(b.kind), auth...)
	}

	e.GET("/api/matching/lost/:name", h.Match(model.KindLost))
	e.GET("/api/matching/found/:name", h.Match(model.KindFound))
}

// RegisterDiary registers the private diary under /api/entries.
func RegisterDiary(e *echo.Echo, h *handler.EntryHandler, jwtSecret string) {
	g := e.Group("/api/entries",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(anyRole...),
	)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
