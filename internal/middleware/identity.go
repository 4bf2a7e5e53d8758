package middleware

import "github.com/labstack/echo/v4"

// userID returns the authenticated subject or "guest".
func userID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}

// RequestID returns the id assigned by RequestLogger, if any.
func RequestID(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}
