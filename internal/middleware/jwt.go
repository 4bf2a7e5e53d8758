package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-cafe/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxName   = "name"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the subject, role and display name in the context.  Handlers read
// them via c.Get("user_id") and c.Get("role").  The user id is kept as the
// decimal string carried by the token.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
			}

			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxName, claims.Name)
			return next(c)
		}
	}
}
