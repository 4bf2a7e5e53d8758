package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-cafe/internal/validation"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ok writes {"success": true} merged with body.
func ok(c echo.Context, status int, body echo.Map) error {
	if body == nil {
		body = echo.Map{}
	}
	body["success"] = true
	return c.JSON(status, body)
}

// fail writes {"success": false, "message": msg}.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// invalid reports the field errors collected by a validator.
func invalid(c echo.Context, fe *validation.FieldErrors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"message": "Please correct the highlighted fields",
		"errors":  fe.Map(),
	})
}

// getUserID extracts the user_id set by JWTAuth and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	return parseUint(c.Param(name))
}

func parseUint(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil && id > 0
}
